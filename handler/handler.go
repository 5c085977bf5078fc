package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"portfolio-assistant/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	fallbackReply       = "Assistant is currently unavailable."
	msgMessageRequired  = "Message is required"
	msgMethodNotAllowed = "Method not allowed"
	msgBodyTooLarge     = "Request body too large"
	contentTypeJSON     = "application/json"
	maxRequestBodyBytes = 1 << 20
)

// corsHeaders are written on every response so browser callers can read
// errors as well as replies.
var corsHeaders = []struct{ key, value string }{
	{"Access-Control-Allow-Credentials", "true"},
	{"Access-Control-Allow-Origin", "*"},
	{"Access-Control-Allow-Methods", "GET,OPTIONS,PATCH,DELETE,POST,PUT"},
	{"Access-Control-Allow-Headers", "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version"},
	{"Access-Control-Expose-Headers", correlationHeader},
}

// ChatUseCase is the chat contract consumed by Handler.
type ChatUseCase interface {
	Reply(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// Handler serves the chat endpoint for both the Lambda and net/http entry
// points.
type Handler struct {
	chat ChatUseCase
}

type chatRequest struct {
	Message any `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// result is a transport-neutral response.
type result struct {
	status int
	body   []byte
}

func NewHandler(chat ChatUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{chat: chat}, nil
}

func (h *Handler) dispatch(ctx context.Context, method string, body []byte, correlationID string) result {
	switch method {
	case http.MethodOptions:
		return result{status: http.StatusOK}
	case http.MethodPost:
	default:
		return jsonResult(http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllowed})
	}

	out, err := h.chat.Reply(ctx, usecase.ChatInput{
		Message:       decodeMessage(body),
		CorrelationID: correlationID,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(http.StatusOK, chatResponse{Reply: out.Reply})
}

// decodeMessage returns the message field, or "" when the body is not JSON
// or the field is absent, null or not a string.
func decodeMessage(body []byte) string {
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	msg, _ := req.Message.(string)
	return msg
}

func errorResult(err error) result {
	var useErr *usecase.Error
	if errors.As(err, &useErr) && useErr.Code == usecase.ErrorInvalidInput {
		return jsonResult(http.StatusBadRequest, errorResponse{Error: msgMessageRequired})
	}
	return jsonResult(http.StatusInternalServerError, chatResponse{Reply: fallbackReply})
}

// jsonResult encodes v without HTML escaping; replies are Markdown.
func jsonResult(status int, v any) result {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return result{
			status: http.StatusInternalServerError,
			body:   []byte(`{"reply":"` + fallbackReply + `"}`),
		}
	}
	return result{status: status, body: bytes.TrimRight(buf.Bytes(), "\n")}
}

// SetCORSHeaders writes the cross-origin headers onto h.
func SetCORSHeaders(h http.Header) {
	for _, kv := range corsHeaders {
		h.Set(kv.key, kv.value)
	}
}

// correlationID returns the caller's ID when present, otherwise a new one.
func correlationID(provided string) string {
	if id := strings.TrimSpace(provided); id != "" {
		return id
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}
