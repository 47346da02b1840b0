package appconfig

import (
	"time"

	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/engine/infra/postgres"
)

// Config holds the service's own runtime settings. This is distinct from
// the white-label configuration documents the service serves: these values
// control the process (listen address, backing stores, credentials), not
// tenant-visible behavior.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Store    StoreConfig     `mapstructure:"store"`
	Cache    cache.Config    `mapstructure:"cache"`
	Database postgres.Config `mapstructure:"database"`
	Log      LogConfig       `mapstructure:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	CORSEnabled     bool          `mapstructure:"cors_enabled"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken      string        `mapstructure:"admin_token"`
}

// StoreConfig locates the base configuration document.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseEnabled reports whether a tenant override database is configured.
// Without one the service runs in base-scope-only mode.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.ConnString != "" || c.Database.Host != ""
}

// RedisEnabled reports whether a shared cache tier is configured.
func (c *Config) RedisEnabled() bool {
	return c.Cache.URL != "" || c.Cache.Host != ""
}

// Default returns the built-in settings: loopback listener, memory-only
// cache, no tenant database.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSEnabled:     true,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{},
		Cache: cache.Config{
			KeyPrefix:  "ally:config",
			MemoryTTL:  time.Minute,
			MemorySize: 1024,
			SharedTTL:  time.Hour,
		},
		Database: postgres.Config{
			SSLMode: "disable",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
