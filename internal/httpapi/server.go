// Package httpapi exposes the Engine over JSON/HTTP for cmd/sessiond.
//
// Routes:
//
//	POST /api/auth/register  201 | 400 | 409
//	POST /api/auth/login     200 | 400 | 401 | 429
//	POST /api/auth/refresh   200 | 401
//	POST /api/auth/logout    guarded, 200
//	GET  /api/auth/profile   guarded, 200
//	GET  /api/health         200 | 503
//	GET  /metrics            when a metrics handler is configured
package httpapi

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/rs/zerolog"
)

// Server routes HTTP requests to an Engine.
type Server struct {
	engine  *goSession.Engine
	logger  zerolog.Logger
	metrics http.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New returns a Server for engine.
func New(engine *goSession.Engine, opts ...Option) *Server {
	s := &Server{engine: engine, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "http").Logger()
	return s
}

// Handler returns the routed handler wrapped in request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	guard := middleware.Guard(s.engine, middleware.WithLogger(s.logger))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.Handle("POST /api/auth/logout", guard(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/auth/profile", guard(http.HandlerFunc(s.handleProfile)))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.recoverMiddleware(s.loggingMiddleware(clientIPMiddleware(mux)))
}
