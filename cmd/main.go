// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/Shivanand-hulikatti/reunion/internal/cache"
	"github.com/Shivanand-hulikatti/reunion/internal/config"
	"github.com/Shivanand-hulikatti/reunion/internal/database"
	"github.com/Shivanand-hulikatti/reunion/internal/events"
	"github.com/Shivanand-hulikatti/reunion/internal/handler"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/Shivanand-hulikatti/reunion/internal/service"
	"github.com/Shivanand-hulikatti/reunion/internal/storage"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	logger.Log.Info("connected to postgres", logger.String("host", cfg.DB.Host))

	// ── 2. Optional infrastructure ────────────────────────────────────────
	rdb := cache.NewClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}
	directory := cache.NewDirectory(rdb, cfg.Redis.TTL)

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logger.Log.Warn("rabbitmq unavailable, registration events disabled", logger.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
		if cfg.AMQP.Consumer {
			go events.Consume(ctx, cfg.AMQP.URL, cfg.AMQP.Queue)
		}
	}

	var assets handler.AssetStore
	store, err := storage.New(ctx, cfg.Storage)
	switch {
	case err == nil:
		assets = store
	case errors.Is(err, storage.ErrDisabled):
		logger.Log.Warn("object storage not configured, photo uploads disabled")
	default:
		return fmt.Errorf("storage: %w", err)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	price, err := cfg.Event.Price()
	if err != nil {
		return err
	}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userRepo := repository.NewUserRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)

	accountSvc := service.NewAccountService(userRepo, tokens, directory, cfg.Auth.BcryptCost)
	eventSvc := service.NewEventService(regRepo, price)
	adminSvc := service.NewAdminService(
		service.NewRegistrationBackend(regRepo, userRepo, publisher),
		userRepo,
		cfg.Admin.RequestTimeout,
	)

	h := handler.New(accountSvc, eventSvc, adminSvc, assets, cfg.Storage.MaxUploadBytes)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.Router(h, tokens, userRepo),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening", logger.String("addr", srv.Addr), logger.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Log.Info("server stopped")
	return nil
}
