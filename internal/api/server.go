// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	pasteapi "github.com/newthinker/rbin/internal/api/handler/api"
	"github.com/newthinker/rbin/internal/api/handler/web"
	"github.com/newthinker/rbin/internal/api/response"
	"github.com/newthinker/rbin/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Server represents the HTTP server for rbin
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	FormField    string
	MaxBodyBytes int64

	// MetricsPath is served only when Dependencies.Metrics is set.
	MetricsPath string
	// RequestLogLevel is the level of per-request access lines.
	RequestLogLevel zapcore.Level
	// Usage lists the configuration shown on the usage page.
	Usage []web.EnvVarHelp
}

// Dependencies holds the services the server routes to.
type Dependencies struct {
	Store   pasteapi.PasteStore
	Metrics *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("paste store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	// logging runs outermost so the request id is in context for handlers
	s.handler = metrics.LoggingMiddleware(logger, cfg.RequestLogLevel)(
		metrics.HTTPMiddleware(deps.Metrics)(mux),
	)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	webHandler, err := web.NewHandler(web.Options{
		FormField:    cfg.FormField,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Vars:         cfg.Usage,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	pasteHandler := pasteapi.NewPasteHandler(deps.Store, pasteapi.PasteOptions{
		FormField:    cfg.FormField,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, s.logger)

	s.mux.HandleFunc("GET /{$}", webHandler.Usage)
	s.mux.HandleFunc("POST /{$}", pasteHandler.Create)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, deps.Metrics.Handler())
	}

	// the remainder wildcard hands multi-segment paths to the id validator
	s.mux.HandleFunc("GET /{id...}", pasteHandler.Get)

	return nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", l.Addr().String()))
	if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "ok\n")
}
