// Package handlers wires the security pipeline into the HTTP surface:
// origin gate, rate limiter, CSRF store, content heuristics and mail
// delivery, in that order. Every stage emits to the security event logger;
// none of them throws past the handler.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webfolio/contact-gateway/config"
	"github.com/webfolio/contact-gateway/events"
	"github.com/webfolio/contact-gateway/internal/csrf"
	"github.com/webfolio/contact-gateway/internal/mail"
	"github.com/webfolio/contact-gateway/internal/ratelimit"
	"github.com/webfolio/contact-gateway/internal/security"
	"github.com/webfolio/contact-gateway/internal/storage"
)

// API carries the wired pipeline stages.
type API struct {
	config *config.Config
	logger *slog.Logger

	origin  *security.OriginVerifier
	limiter *ratelimit.Limiter
	csrf    *csrf.Service
	mailer  mail.Mailer
	secLog  *security.EventLogger
	bus     *events.Bus
	store   storage.KeyValueStore
}

// Options bundles the API dependencies. Store and Mailer are required;
// Bus may be nil when no sinks beyond the log are wanted.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Store  storage.KeyValueStore
	Mailer mail.Mailer
	Bus    *events.Bus
}

func New(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := opts.Config

	secLog := security.NewEventLogger(logger, opts.Bus, !cfg.IsProduction())

	return &API{
		config: cfg,
		logger: logger,
		origin: security.NewOriginVerifier(cfg.Security),
		limiter: ratelimit.New(opts.Store, logger, secLog, ratelimit.Options{
			Prefix:   cfg.RateLimit.Prefix,
			Cooldown: cfg.RateLimit.BlockCooldown,
		}),
		csrf: csrf.NewService(opts.Store, csrf.Options{
			Prefix:        cfg.CSRF.Prefix,
			TokenTTL:      cfg.CSRF.TokenTTL,
			RefreshWindow: cfg.CSRF.RefreshWindow,
		}),
		mailer: opts.Mailer,
		secLog: secLog,
		bus:    opts.Bus,
		store:  opts.Store,
	}
}

// Router builds the chi router for the gateway.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/api/csrf-token", api.CSRFToken)
	r.Post("/api/contact", api.Contact)
	r.Get("/api/health", api.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
