package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/noxistence/noxistence/internal/cache"
	"github.com/noxistence/noxistence/internal/gallery"
	"github.com/noxistence/noxistence/internal/lore"
	"github.com/noxistence/noxistence/internal/mcpserver"
	"github.com/noxistence/noxistence/internal/syncengine"
)

// RunMCP serves the catalog tools over MCP stdio. Logs go to stderr so
// stdout stays clean for the protocol.
func RunMCP(opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer repo.Close()

	store := app.store
	if store == nil {
		store = openAssetStore(cfg, logger)
	}

	c, err := cache.New(cfg.Cache.Dir, logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	engine := syncengine.New(store, c, syncengine.Strategies(cfg.Assets.UploadPreset, cfg.Assets.Folders), logger)
	gallerySvc := gallery.NewService(repo, store, logger)
	loreSvc, err := lore.NewService(cfg.Data.Dir, store, logger)
	if err != nil {
		return fmt.Errorf("init lore: %w", err)
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(gallerySvc, loreSvc, engine).ServeStdio()
}
