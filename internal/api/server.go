package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/awahed/hellosvc/internal/model"
	"github.com/awahed/hellosvc/internal/ratelimit"
)

// Server is the HTTP responder server.
type Server struct {
	httpServer  *http.Server
	rateLimiter *ratelimit.Limiter
	metrics     *Collector
}

// ServerDeps holds the dependencies injected into the server.
type ServerDeps struct {
	Handler      http.Handler
	RateLimiter  *ratelimit.Limiter
	Metrics      *Collector
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSConfig    *tls.Config
}

// NewServer creates a server with the middleware stack applied.
func NewServer(deps ServerDeps) *Server {
	s := &Server{
		rateLimiter: deps.RateLimiter,
		metrics:     deps.Metrics,
	}

	// Build middleware stack
	handler := s.withPanicRecovery(deps.Handler)
	handler = s.withRateLimit(handler)
	handler = s.withMetrics(handler)
	handler = s.withLogging(handler)
	handler = s.withCORS(handler)

	s.httpServer = &http.Server{
		Addr:         deps.ListenAddr,
		Handler:      handler,
		ReadTimeout:  deps.ReadTimeout,
		WriteTimeout: deps.WriteTimeout,
		TLSConfig:    deps.TLSConfig,
	}

	return s
}

// Start begins listening for HTTP requests. Binding is attempted exactly
// once; a bind failure is returned to the caller, which treats it as fatal.
func (s *Server) Start() error {
	scheme := "http"
	if s.httpServer.TLSConfig != nil {
		scheme = "https"
	}
	slog.Info("starting server", "addr", s.httpServer.Addr, "scheme", scheme)

	var err error
	if s.httpServer.TLSConfig != nil {
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// Middleware: CORS headers. The allow-all origin header is set
// unconditionally on every response, error responses included. OPTIONS
// requests are answered here with the preflight grants.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware: structured logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// Middleware: request metrics
func (s *Server) withMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.metrics.ObserveRequest(r.Method, r.URL.Path, sw.status, time.Since(start).Seconds())
	})
}

// Middleware: per-IP rate limiting, applied across all routes.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.rateLimiter.ExtractClientIP(r)
		if !s.rateLimiter.Allow(clientIP) {
			if s.metrics != nil {
				s.metrics.IncRateLimitRejections()
			}
			writeRateLimited(w, s.rateLimiter.RetryAfter(clientIP))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware: panic recovery
func (s *Server) withPanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered in HTTP handler",
					"error", err,
					"path", r.URL.Path,
				)
				model.WriteProblem(w, http.StatusInternalServerError,
					"An unexpected error occurred. Please try again later.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	p := model.NewProblem(http.StatusTooManyRequests,
		fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter))
	p.RetryAfter = retryAfter
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(p)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
