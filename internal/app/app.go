package app

import (
	"fmt"
	"strings"

	"github.com/newthinker/folio/internal/api"
	"github.com/newthinker/folio/internal/auth"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/contact"
	"github.com/newthinker/folio/internal/events"
	"github.com/newthinker/folio/internal/llm/factory"
	"github.com/newthinker/folio/internal/llm/router"
	"github.com/newthinker/folio/internal/mailer"
	"github.com/newthinker/folio/internal/metrics"
	"github.com/newthinker/folio/internal/storage"
	"go.uber.org/zap"
)

// App is the main application orchestrator
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	metrics  *metrics.Registry
	backends router.Backends
	router   *router.Router
	store    storage.Store
	mailer   *mailer.Mailer
	bus      *events.Bus
	auth     *auth.Service
	contact  *contact.Service
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	sender    mailer.Sender
	backends  *router.Backends
	authStore auth.Store
}

// WithSender replaces the SMTP sender.
func WithSender(s mailer.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithBackends replaces the configured model backends.
func WithBackends(b router.Backends) Option {
	return func(o *options) { o.backends = &b }
}

// WithAuthStore replaces the in-memory user and session store.
func WithAuthStore(s auth.Store) Option {
	return func(o *options) { o.authStore = s }
}

// New creates a new App instance
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	reg := metrics.NewRegistry()

	backends := router.Backends{}
	if o.backends != nil {
		backends = *o.backends
	} else {
		b, err := factory.NewBackends(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating model backends: %w", err)
		}
		backends = b
	}
	r, err := factory.FromBackends(backends, cfg.LLM, logger, reg)
	if err != nil {
		return nil, fmt.Errorf("creating model router: %w", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	sender := o.sender
	if sender == nil {
		sender = mailer.NewSMTP(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password)
	}
	m := mailer.New(sender, mailer.Config{
		From:      cfg.Email.From,
		ContactTo: cfg.Contact.To,
	}, logger, reg)

	bus := events.NewBus(events.Config{
		StepAttempts: cfg.Events.StepAttempts,
		StepBackoff:  cfg.Events.StepBackoff,
		MaxRuns:      cfg.Events.MaxRuns,
	}, logger, reg)
	if err := events.RegisterDefaults(bus, m, logger); err != nil {
		return nil, fmt.Errorf("registering event functions: %w", err)
	}

	authStore := o.authStore
	if authStore == nil {
		authStore = auth.NewMemoryStore()
	}
	authSvc := auth.NewService(authStore, m, bus, auth.Config{
		BaseURL:        cfg.Auth.BaseURL,
		TokenTTL:       cfg.Auth.TokenTTL,
		SessionTTL:     cfg.Auth.SessionTTL,
		AllowedDomains: cfg.Auth.AllowedDomains,
	}, logger, reg)

	return &App{
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		backends: backends,
		router:   r,
		store:    storage.Instrument(store, reg),
		mailer:   m,
		bus:      bus,
		auth:     authSvc,
		contact:  contact.NewService(m, bus, logger),
	}, nil
}

// Router returns the model router.
func (a *App) Router() *router.Router { return a.router }

// Store returns the instrumented object store.
func (a *App) Store() storage.Store { return a.store }

// Bus returns the event bus.
func (a *App) Bus() *events.Bus { return a.bus }

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Server creates the HTTP server over the app's services.
func (a *App) Server() (*api.Server, error) {
	cfg := api.Config{
		Host:           a.cfg.Server.Host,
		Port:           a.cfg.Server.Port,
		APIKey:         a.cfg.Server.APIKey,
		MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
		SecureCookie:   a.cfg.Auth.SecureCookie,
	}
	if a.cfg.Metrics.Enabled {
		cfg.MetricsPath = a.cfg.Metrics.Path
	}
	// Local uploads are served by folio itself when their URLs are paths.
	if a.cfg.Storage.Type == "localfs" && strings.HasPrefix(a.cfg.Storage.BaseURL, "/") {
		cfg.UploadsDir = a.cfg.Storage.Path
		cfg.UploadsPrefix = a.cfg.Storage.BaseURL
	}

	return api.NewServer(cfg, api.Dependencies{
		Router:  a.router,
		Store:   a.store,
		Events:  a.bus,
		Runs:    a.bus.Runs(),
		Auth:    a.auth,
		Contact: a.contact,
		Metrics: a.metrics,
	}, a.logger)
}

// Close waits for in-flight event handlers.
func (a *App) Close() error {
	a.bus.Wait()
	return nil
}
