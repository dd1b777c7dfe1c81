package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superbmd/superbmd/internal/config"
)

// Cache stores derived read models (the dashboard) between mutations
type Cache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Generation identifies the current cache contents. Callers read it
	// before computing a value and hand it back to Set.
	Generation(ctx context.Context) (int64, error)

	// Set stores a value under key. The write is dropped when gen is no
	// longer the current generation.
	Set(ctx context.Context, gen int64, key string, value []byte) error

	// Invalidate drops every cached entry and starts a new generation
	Invalidate(ctx context.Context) error

	// Close releases resources
	Close() error
}

// New builds the cache selected by configuration
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		slog.Info("Dashboard cache disabled")
		return Noop{}, nil
	case "memory":
		return NewMemoryCache(cfg.Size, cfg.TTL), nil
	case "valkey":
		return NewValkeyCache(cfg.ValkeyAddr, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// Noop never holds anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context) (int64, error)         { return 0, nil }
func (Noop) Set(context.Context, int64, string, []byte) error  { return nil }
func (Noop) Invalidate(context.Context) error                  { return nil }
func (Noop) Close() error                                      { return nil }
