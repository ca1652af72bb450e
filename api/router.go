// Package api exposes the assistant over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/assistant"
)

// Config holds HTTP settings.
type Config struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DefaultConfig returns default HTTP settings.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 60 * time.Second,
		MaxBodyBytes:   32 << 20,
	}
}

// NewRouter creates the API router with all routes configured.
func NewRouter(a *assistant.Assistant, cfg Config, logger zerolog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"tabula"}`))
	})

	h := NewHandler(logger, a, cfg.MaxBodyBytes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/dataset", func(r chi.Router) {
			r.Put("/", h.LoadDataset)
			r.Delete("/", h.ClearDataset)
			r.Get("/columns", h.Columns)
		})
		r.Post("/ask", h.Ask)
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
