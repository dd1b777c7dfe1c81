package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache shares cached entries between server replicas.
// Entries are namespaced by a generation counter; Invalidate bumps the
// counter so stale keys simply expire.
type ValkeyCache struct {
	client valkey.Client
	prefix string // "superbmd:cache"
	ttl    time.Duration
}

// NewValkeyCache connects to Valkey at addr
func NewValkeyCache(addr string, ttl time.Duration) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	c := &ValkeyCache{
		client: client,
		prefix: "superbmd:cache",
		ttl:    ttl,
	}

	slog.Info("Initialized Valkey dashboard cache",
		"address", addr,
		"prefix", c.prefix,
		"ttl", ttl)
	return c, nil
}

func (c *ValkeyCache) genKey() string {
	return c.prefix + ":gen"
}

// Generation returns the shared generation counter
func (c *ValkeyCache) Generation(ctx context.Context) (int64, error) {
	n, err := c.client.Do(ctx, c.client.B().Get().Key(c.genKey()).Build()).AsInt64()
	if valkey.IsValkeyNil(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return n, nil
}

func (c *ValkeyCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

// Get returns the value stored under key in the current generation
func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}

	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.entryKey(gen, key)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return b, true, nil
}

// Set stores value under key in generation gen. A write for a superseded
// generation lands in a namespace no reader looks at and expires with the TTL.
func (c *ValkeyCache) Set(ctx context.Context, gen int64, key string, value []byte) error {
	cmd := c.client.B().Set().Key(c.entryKey(gen, key)).Value(valkey.BinaryString(value)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate moves every replica to a fresh generation
func (c *ValkeyCache) Invalidate(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Incr().Key(c.genKey()).Build()).Error(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	slog.Debug("Dashboard cache invalidated", "prefix", c.prefix)
	return nil
}

// Close closes the Valkey client
func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
