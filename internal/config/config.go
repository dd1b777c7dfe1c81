package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development fallback secret. It is rejected in production mode.
const DefaultJWTSecret = "change-me-in-production"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // "development" or "production"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // gorm logger: silent, error, warn, info
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"` // Secret for JWT signing
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// PaginationConfig bounds list endpoints
type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// CacheConfig holds dashboard cache configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "none", "memory" or "valkey"
	TTL        time.Duration `mapstructure:"ttl"`
	Size       int           `mapstructure:"size"`        // Max entries (memory)
	ValkeyAddr string        `mapstructure:"valkey_addr"` // e.g. "localhost:6379"
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from .env, config file and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/superbmd/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SUPERBMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 6543)
	v.SetDefault("server.mode", "development")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./superbmd.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "")
	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "superbmd")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("pagination.default_limit", 10)
	v.SetDefault("pagination.max_limit", 100)
	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.size", 128)
	v.SetDefault("cache.valkey_addr", "localhost:6379")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Cache.Type {
	case "", "none", "memory", "valkey":
	default:
		return fmt.Errorf("unsupported cache type: %s (supported: none, memory, valkey)", c.Cache.Type)
	}

	if c.Server.Mode == "production" && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret) {
		return errors.New("auth.jwt_secret must be set in production mode")
	}

	if c.Pagination.DefaultLimit <= 0 {
		c.Pagination.DefaultLimit = 10
	}
	if c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		c.Pagination.MaxLimit = c.Pagination.DefaultLimit
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	return nil
}
