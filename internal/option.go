package internal

import "github.com/noxistence/noxistence/internal/assetstore"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  assetstore.Store
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithAssetStore overrides the asset store built from configuration.
// Used by tests to inject an in-memory store.
func WithAssetStore(store assetstore.Store) Option {
	return func(a *application) {
		a.store = store
	}
}
