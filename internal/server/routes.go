package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"portfolio-assistant/handler"
)

// NewRouter creates the chi router for the long-running deployment.
func NewRouter(chat *handler.Handler, logger *slog.Logger) (*chi.Mux, error) {
	docs, err := newAPIDocs(openAPIYAML)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(handler.CORS)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api-docs", http.StatusFound)
	})
	r.Get("/api-docs", docs.serveUI)
	r.Get("/api-docs.json", docs.serveJSON)
	r.Get("/api-docs.yaml", docs.serveYAML)
	r.Get("/health", handler.Health)

	// All methods reach the handler so it can answer 405 itself.
	r.Handle("/chat", chat)

	return r, nil
}

// accessLog writes one structured line per request.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.InfoContext(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
					"remote_addr", r.RemoteAddr,
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
