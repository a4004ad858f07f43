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

	"github.com/noxistence/noxistence/internal/api"
	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/cache"
	"github.com/noxistence/noxistence/internal/catalog"
	"github.com/noxistence/noxistence/internal/datawatch"
	"github.com/noxistence/noxistence/internal/gallery"
	"github.com/noxistence/noxistence/internal/lore"
	"github.com/noxistence/noxistence/internal/sse"
	"github.com/noxistence/noxistence/internal/syncengine"
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
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("catalog_backend", cfg.Catalog.Backend),
		slog.String("assets_mode", cfg.Assets.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize the catalog repository.
	repo, err := openRepository(cfg)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer repo.Close()

	// Initialize the asset store.
	store := app.store
	if store == nil {
		store = openAssetStore(cfg, logger)
	}

	// Initialize the local cache.
	c, err := cache.New(cfg.Cache.Dir, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	// Build the sync engine with its ordered fallback strategies.
	strategies := syncengine.Strategies(cfg.Assets.UploadPreset, cfg.Assets.Folders)
	engine := syncengine.New(store, c, strategies, logger)

	// Build domain services.
	gallerySvc := gallery.NewService(repo, store, logger)
	loreSvc, err := lore.NewService(cfg.Data.Dir, store, logger)
	if err != nil {
		return fmt.Errorf("init lore: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(gallerySvc, loreSvc, engine, c, broker, cfg.Assets.APISecret)
	authCfg := api.AuthConfig{
		Enabled: cfg.Auth.AuthEnabled(),
		User:    cfg.Auth.User,
		Pass:    cfg.Auth.Pass,
	}
	apiRouter := api.NewRouter(h, authCfg, http.HandlerFunc(broker.ServeHTTP))

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

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data directory and notify connected clients when the
	// catalog or lore documents change on disk.
	g.Go(func() error {
		err := datawatch.Watch(gCtx, cfg.Data.Dir, logger, func(doc string) {
			broker.PublishChange("document.changed", doc)
		})
		if err != nil {
			logger.Warn("data watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

func openRepository(cfg *Config) (catalog.Repository, error) {
	switch cfg.Catalog.Backend {
	case BackendSQLite:
		return catalog.OpenSQLite(cfg.Catalog.SQLitePath)
	default:
		return catalog.NewJSONFile(cfg.Data.Dir)
	}
}

func openAssetStore(cfg *Config, logger *slog.Logger) assetstore.Store {
	if cfg.Assets.Mode == AssetsModeCloud {
		return assetstore.NewCloud(assetstore.CloudConfig{
			CloudName: cfg.Assets.CloudName,
			APIKey:    cfg.Assets.APIKey,
			APISecret: cfg.Assets.APISecret,
			BaseURL:   cfg.Assets.BaseURL,
			Timeout:   cfg.Assets.Timeout(),
		})
	}
	logger.Info("using in-memory asset store")
	return assetstore.NewMemory()
}
