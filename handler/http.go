package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ServeHTTP serves the chat endpoint for the long-running server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r.Header.Get(correlationHeader))

	var res result
	body, err := readBody(w, r)
	if err != nil {
		res = jsonResult(http.StatusRequestEntityTooLarge, errorResponse{Error: msgBodyTooLarge})
	} else {
		res = h.dispatch(r.Context(), r.Method, body, corrID)
	}

	SetCORSHeaders(w.Header())
	w.Header().Set(correlationHeader, corrID)
	writeResult(w, res)
}

// readBody reads a POST body of at most maxRequestBodyBytes. Other methods
// never reach the use case, so their bodies are ignored.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Method != http.MethodPost || r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, err
	}
	return body, nil
}

// CORS writes the cross-origin headers on every response and answers
// pre-flight OPTIONS requests for any path with an empty 200.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w.Header())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health reports that the server is up. It never touches the completion API.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Server is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeResult(w http.ResponseWriter, res result) {
	if len(res.body) > 0 {
		w.Header().Set("Content-Type", contentTypeJSON)
	}
	w.WriteHeader(res.status)
	if len(res.body) > 0 {
		_, _ = w.Write(res.body)
	}
}
