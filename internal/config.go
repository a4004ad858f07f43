package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Catalog backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Asset store modes.
const (
	AssetsModeCloud  = "cloud"
	AssetsModeMemory = "memory"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeBasic    = "basic"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Cache   CacheConfig       `yaml:"cache"`
	Assets  AssetsConfig      `yaml:"assets"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig holds the path to the flat-file data directory (catalog
// documents, lore document).
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// CatalogConfig selects the record persistence backend.
type CatalogConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendJSON, BackendSQLite)),
	); err != nil {
		return err
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("catalog: backend is %q but sqlite_path is empty", BackendSQLite)
	}
	return nil
}

// CacheConfig holds the local cache directory.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AssetsConfig holds the remote asset store settings.
//
// Mode selects the store implementation:
//   - "memory" (default): in-process store, suitable for local dev and
//     tests; remote deletes degrade to local-only removal.
//   - "cloud": the real CDN admin API; CloudName/APIKey/APISecret must
//     be set.
type AssetsConfig struct {
	Mode         string   `yaml:"mode"`
	CloudName    string   `yaml:"cloud_name"`
	APIKey       string   `yaml:"api_key"`
	APISecret    string   `yaml:"api_secret"`
	UploadPreset string   `yaml:"upload_preset"`
	Folders      []string `yaml:"folders"`
	BaseURL      string   `yaml:"base_url"`
	TimeoutSecs  int      `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c *AssetsConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Validate validates the asset store configuration.
func (c *AssetsConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AssetsModeMemory
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AssetsModeCloud, AssetsModeMemory)),
	); err != nil {
		return err
	}
	if c.Mode == AssetsModeCloud {
		return validation.ValidateStruct(c,
			validation.Field(&c.CloudName, validation.Required),
			validation.Field(&c.APIKey, validation.Required),
			validation.Field(&c.APISecret, validation.Required),
		)
	}
	return nil
}

// AuthConfig holds the editor credentials.
//
// Mode controls how the editor surface is protected:
//   - "disabled" (default): no authentication, suitable for local dev.
//   - "basic": HTTP basic auth; User and Pass must be non-empty.
type AuthConfig struct {
	Mode string `yaml:"mode"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeBasic)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeBasic && (c.User == "" || c.Pass == "") {
		return fmt.Errorf("auth: mode is %q but user or pass is empty", AuthModeBasic)
	}
	return nil
}

// AuthEnabled returns true when the editor gate is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeBasic
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Catalog: CatalogConfig{
			Backend: BackendJSON,
		},
		Cache: CacheConfig{
			Dir: "./cache",
		},
		Assets: AssetsConfig{
			Mode:         AssetsModeMemory,
			UploadPreset: "noxistence_uploads",
			Folders:      []string{"noxistence_uploads", "noxistence"},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
