// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/override"
	"github.com/starford/raido/internal/refresh"
	"github.com/starford/raido/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("dataset_path", cfg.Dataset.Path),
		slog.String("overrides_driver", cfg.Overrides.Driver),
		slog.String("overrides_path", cfg.Overrides.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Compliance dataset.
	provider, err := compliance.NewDirProvider(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("init dataset provider: %w", err)
	}

	// Override repository by driver.
	var repo override.Repository
	switch cfg.Overrides.Driver {
	case OverrideDriverSQLite:
		sqliteRepo, err := override.OpenSQLite(cfg.Overrides.Path)
		if err != nil {
			return fmt.Errorf("init override db: %w", err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	default:
		fileRepo, err := override.NewFileRepository(cfg.Overrides.Path)
		if err != nil {
			return fmt.Errorf("init override file: %w", err)
		}
		repo = fileRepo
	}

	overrides, err := override.NewStore(repo)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	// Link health probing.
	checker := linkhealth.NewChecker(cfg.Probe.Timeout.Std(), cfg.Probe.UserAgent)
	links := linkhealth.NewCache(checker, cfg.Probe.Concurrency)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Refresh orchestrator publishing through the broker.
	orch := refresh.New(provider, links, broker.PublishRefreshEvent, cfg.Refresh.BackgroundDelay.Std(), logger)

	// Build API handler and router.
	h := api.NewHandler(provider, overrides, links, orch)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload overrides when the file is edited externally. Only the file
	// driver has something to watch.
	if fileRepo, ok := repo.(*override.FileRepository); ok {
		g.Go(func() error {
			err := override.Watch(gCtx, overrides, fileRepo.Path(), logger, func() {
				broker.PublishRefreshEvent(refresh.EventNotice, map[string]string{
					"message": "Link overrides reloaded",
				})
			})
			if err != nil {
				logger.Warn("override watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		orch.CancelBackground()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
