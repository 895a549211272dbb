// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/folio/internal/api/handler/api"
	"github.com/newthinker/folio/internal/api/middleware"
	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for folio
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	APIKey         string
	MetricsPath    string // empty disables the metrics endpoint
	MaxUploadBytes int64
	SecureCookie   bool

	// UploadsDir, when set, is served read-only under UploadsPrefix.
	UploadsDir    string
	UploadsPrefix string
}

// Dependencies holds the services the handlers call into. A nil service
// leaves its routes unregistered.
type Dependencies struct {
	Router  api.ModelRouter
	Store   api.ObjectStore
	Events  api.EventPublisher
	Runs    api.RunLookup
	Auth    api.AuthService
	Contact api.ContactService
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger.Named("http"))(handler)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second, // model calls are slow
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	protected := middleware.APIKeyAuth(cfg.APIKey)

	if deps.Router != nil {
		ai := api.NewAIHandler(deps.Router)
		s.mux.Handle("POST /api/ai/chat", protected(http.HandlerFunc(ai.Chat)))
		s.mux.Handle("POST /api/ai/grounded", protected(http.HandlerFunc(ai.Grounded)))
		s.mux.Handle("POST /api/ai/parse-json", protected(http.HandlerFunc(ai.ParseJSON)))
		s.mux.Handle("GET /api/ai/models", protected(http.HandlerFunc(ai.Models)))
	}

	if deps.Store != nil {
		uploads := api.NewUploadHandler(deps.Store, cfg.MaxUploadBytes)
		s.mux.Handle("POST /api/uploads", protected(http.HandlerFunc(uploads.Upload)))
	}

	if deps.Events != nil {
		ev := api.NewEventsHandler(deps.Events, deps.Runs)
		s.mux.Handle("POST /api/events", protected(http.HandlerFunc(ev.Send)))
		s.mux.Handle("GET /api/events/{id}", protected(http.HandlerFunc(ev.Run)))
	}

	// Contact and sign-in are called from the public site.
	if deps.Contact != nil {
		contact := api.NewContactHandler(deps.Contact)
		s.mux.HandleFunc("POST /api/contact", contact.Submit)
	}

	if deps.Auth != nil {
		auth := api.NewAuthHandler(deps.Auth, cfg.SecureCookie)
		s.mux.HandleFunc("POST /api/auth/signin", auth.SignIn)
		s.mux.HandleFunc("GET /api/auth/verify", auth.Verify)
		s.mux.HandleFunc("GET /api/auth/session", auth.Session)
		s.mux.HandleFunc("POST /api/auth/signout", auth.SignOut)
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	if cfg.UploadsDir != "" {
		prefix := cfg.UploadsPrefix
		if prefix == "" || prefix[0] != '/' {
			return fmt.Errorf("uploads prefix must be an absolute path, got %q", prefix)
		}
		if prefix[len(prefix)-1] != '/' {
			prefix += "/"
		}
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadsDir)))
		s.mux.Handle("GET "+prefix, files)
	}

	return nil
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}
