package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/webfolio/contact-gateway/config"
	"github.com/webfolio/contact-gateway/env"
	"github.com/webfolio/contact-gateway/events"
	"github.com/webfolio/contact-gateway/internal/bootstrap"
	"github.com/webfolio/contact-gateway/internal/handlers"
	"github.com/webfolio/contact-gateway/internal/mail"
	"github.com/webfolio/contact-gateway/internal/metrics"
	"github.com/webfolio/contact-gateway/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if os.Getenv(env.EnvGoEnvironment) != "production" {
			log.Println("no .env file found, relying on process environment")
		}
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := bootstrap.InitLogger(cfg)

	store, err := buildStore(cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "provider", cfg.Storage.Provider.String(), "error", err)
		os.Exit(1)
	}
	defer store.Close()

	bus := events.NewBus(cfg.EventBus.BufferSize, logger)
	defer bus.Close()

	gatewayMetrics, err := metrics.New(nil)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	if err := gatewayMetrics.WireBus(bus); err != nil {
		logger.Error("failed to wire metrics sink", "error", err)
		os.Exit(1)
	}

	mailer := buildMailer(cfg, logger)

	api := handlers.New(handlers.Options{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Mailer: mailer,
		Bus:    bus,
	})

	port := os.Getenv(env.EnvPort)
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting contact gateway",
			"port", port,
			"environment", cfg.Environment,
			"storage", cfg.Storage.Provider.String(),
			"relaxed_origin", cfg.Security.RelaxedOrigin,
		)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			_ = server.Close()
		}
	}
}

func buildStore(cfg *config.Config) (storage.KeyValueStore, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderRedis:
		return storage.NewRedisStore(storage.RedisStoreOptions{})
	default:
		return storage.NewMemoryStore(cfg.Storage.CleanupInterval), nil
	}
}

// buildMailer constructs the delivery service. Missing credentials are not
// fatal at startup: the provider constructor fails, the service runs
// without it, and the first send surfaces a 500. The health endpoint makes
// the misconfiguration visible before that.
func buildMailer(cfg *config.Config, logger *slog.Logger) mail.Mailer {
	build := func(provider config.EmailProviderType) mail.Mailer {
		switch provider {
		case config.EmailProviderResend:
			p, err := mail.NewResendProvider(cfg.Email.FromAddress)
			if err != nil {
				logger.Warn("resend provider unavailable", "error", err)
				return nil
			}
			return p
		case config.EmailProviderSMTP:
			p, err := mail.NewSMTPProvider(cfg.Email.FromAddress)
			if err != nil {
				logger.Warn("smtp provider unavailable", "error", err)
				return nil
			}
			return p
		default:
			return nil
		}
	}

	primary := build(cfg.Email.Provider)
	var fallback mail.Mailer
	if cfg.Email.FallbackProvider != "" && cfg.Email.FallbackProvider != cfg.Email.Provider {
		fallback = build(cfg.Email.FallbackProvider)
	}

	return mail.NewService(logger, primary, fallback)
}
