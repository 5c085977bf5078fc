package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"portfolio-assistant/internal/usecase"
)

func requireCORSHeader(t *testing.T, h http.Header) {
	t.Helper()
	require.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET,OPTIONS,PATCH,DELETE,POST,PUT", h.Get("Access-Control-Allow-Methods"))
	require.Contains(t, h.Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
	require.Contains(t, h.Get("Access-Control-Allow-Headers"), "X-Api-Version")
	require.Equal(t, "X-Correlation-Id", h.Get("Access-Control-Expose-Headers"))
}

func TestServeHTTP_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "hello"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("X-Correlation-Id", "corr-7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"reply":"hello"}`, rr.Body.String())
	require.Equal(t, "corr-7", rr.Header().Get("X-Correlation-Id"))
	require.Equal(t, "hi", uc.in.Message)
	requireCORSHeader(t, rr.Header())
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	uc := &stubUseCase{}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chat", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.JSONEq(t, `{"error":"Method not allowed"}`, rr.Body.String())
	require.Zero(t, uc.calls)
	requireCORSHeader(t, rr.Header())
}

func TestServeHTTP_ValidationAndUpstreamErrors(t *testing.T) {
	completer := &stubCompleter{err: errors.New("quota exceeded")}
	h := newServiceHandler(t, completer)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.JSONEq(t, `{"error":"Message is required"}`, rr.Body.String())
	require.Zero(t, completer.calls)
	requireCORSHeader(t, rr.Header())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`)))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, `{"reply":"Assistant is currently unavailable."}`, rr.Body.String())
	require.Equal(t, 1, completer.calls)
	requireCORSHeader(t, rr.Header())
}

func TestServeHTTP_BodySizeLimit(t *testing.T) {
	cases := []struct {
		name      string
		msgLen    int
		status    int
		wantBody  string
		wantCalls int
	}{
		{name: "within limit", msgLen: maxRequestBodyBytes - 64, status: http.StatusOK, wantCalls: 1},
		{name: "over limit", msgLen: maxRequestBodyBytes, status: http.StatusRequestEntityTooLarge, wantBody: `{"error":"Request body too large"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
			h, err := NewHandler(uc)
			require.NoError(t, err)

			body := `{"message":"` + strings.Repeat("a", tc.msgLen) + `"}`
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

			require.Equal(t, tc.status, rr.Code)
			if tc.wantBody != "" {
				require.JSONEq(t, tc.wantBody, rr.Body.String())
			}
			require.Equal(t, tc.wantCalls, uc.calls)
			require.NotEmpty(t, rr.Header().Get("X-Correlation-Id"))
			requireCORSHeader(t, rr.Header())
		})
	}
}

func TestCORS_PreflightAnyPath(t *testing.T) {
	nextCalled := false
	mw := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		nextCalled = true
	}))

	for _, path := range []string{"/", "/chat", "/health", "/does-not-exist"} {
		rr := httptest.NewRecorder()
		mw.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, path)
		require.Empty(t, rr.Body.String(), path)
		requireCORSHeader(t, rr.Header())
	}
	require.False(t, nextCalled)
}

func TestCORS_PassesThroughWithHeaders(t *testing.T) {
	mw := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
	requireCORSHeader(t, rr.Header())
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rr.Body.String())
}
