package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// ConfigCache is the two-tier cache in front of the override resolver: an
// in-process tier with a short TTL backed by a shared Redis tier with a
// longer TTL. A shared-tier outage degrades reads to the in-process tier
// and never propagates as a request failure.
type ConfigCache struct {
	memory *MemoryTier
	shared RedisInterface
	config *Config
}

// TierStatus reports cache-tier state for the health endpoint.
type TierStatus struct {
	MemoryEntries    int           `json:"memory_entries"`
	MemoryTTL        time.Duration `json:"memory_ttl"`
	SharedConfigured bool          `json:"shared_configured"`
	SharedHealthy    bool          `json:"shared_healthy"`
	SharedTTL        time.Duration `json:"shared_ttl"`
}

// NewConfigCache builds the two-tier cache. A nil shared client means the
// cache runs on the in-process tier only (single-instance deployments).
func NewConfigCache(cfg *Config, shared RedisInterface) *ConfigCache {
	if cfg == nil {
		cfg = &Config{}
	}
	return &ConfigCache{
		memory: NewMemoryTier(cfg.memorySize(), cfg.memoryTTL()),
		shared: shared,
		config: cfg,
	}
}

// Get returns the cached document for a key, checking the in-process tier
// first and falling back to the shared tier (repopulating the in-process
// tier on a shared hit). Returns ErrNotFound when neither tier holds a live
// entry; shared-tier failures degrade to a miss.
func (c *ConfigCache) Get(ctx context.Context, key string) (document.Document, error) {
	if payload, ok := c.memory.Get(key); ok {
		return decodeDocument(payload)
	}
	if c.shared == nil {
		return nil, ErrNotFound
	}
	payload, err := c.shared.Get(ctx, c.sharedKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		logger.FromContext(ctx).Warn("shared cache tier unreachable, degrading to in-process tier",
			"key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
	}
	c.memory.Set(key, payload)
	return decodeDocument(payload)
}

// Set populates both tiers. The in-process tier is always written; a
// shared-tier failure is logged and absorbed so cache fills never fail the
// request that triggered them.
func (c *ConfigCache) Set(ctx context.Context, key string, doc document.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding cache entry %q: %w", key, err)
	}
	c.memory.Set(key, payload)
	if c.shared == nil {
		return nil
	}
	if err := c.shared.Set(ctx, c.sharedKey(key), payload, c.config.sharedTTL()).Err(); err != nil {
		logger.FromContext(ctx).Warn("failed to populate shared cache tier",
			"key", key, "error", err)
	}
	return nil
}

// Invalidate purges the given keys from both tiers. The shared tier is
// purged first so a reader racing the purge cannot repopulate the
// in-process tier from a stale shared entry.
func (c *ConfigCache) Invalidate(ctx context.Context, keys ...string) error {
	if c.shared != nil && len(keys) > 0 {
		sharedKeys := make([]string, len(keys))
		for i, key := range keys {
			sharedKeys[i] = c.sharedKey(key)
		}
		if err := c.shared.Del(ctx, sharedKeys...).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
		}
	}
	for _, key := range keys {
		c.memory.Remove(key)
	}
	return nil
}

// InvalidatePattern purges every key matching the glob pattern (path.Match
// syntax, e.g. "*/branding") from both tiers and returns the purged keys.
func (c *ConfigCache) InvalidatePattern(ctx context.Context, pattern string) ([]string, error) {
	purged := make(map[string]struct{})
	if c.shared != nil {
		sharedKeys, err := c.shared.Keys(ctx, c.sharedKey(pattern)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
		}
		if len(sharedKeys) > 0 {
			if err := c.shared.Del(ctx, sharedKeys...).Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
			}
			prefixLen := len(c.sharedKey(""))
			for _, key := range sharedKeys {
				purged[key[prefixLen:]] = struct{}{}
			}
		}
	}
	for _, key := range c.memory.Keys() {
		if matched, _ := path.Match(pattern, key); matched {
			c.memory.Remove(key)
			purged[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(purged))
	for key := range purged {
		keys = append(keys, key)
	}
	return keys, nil
}

// InvalidateAll purges everything from both tiers and returns the purged
// keys.
func (c *ConfigCache) InvalidateAll(ctx context.Context) ([]string, error) {
	purged := make(map[string]struct{})
	if c.shared != nil {
		sharedKeys, err := c.shared.Keys(ctx, c.sharedKey("*")).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
		}
		if len(sharedKeys) > 0 {
			if err := c.shared.Del(ctx, sharedKeys...).Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSharedTierUnavailable, err)
			}
			prefixLen := len(c.sharedKey(""))
			for _, key := range sharedKeys {
				purged[key[prefixLen:]] = struct{}{}
			}
		}
	}
	for _, key := range c.memory.Keys() {
		purged[key] = struct{}{}
	}
	c.memory.Purge()
	keys := make([]string, 0, len(purged))
	for key := range purged {
		keys = append(keys, key)
	}
	return keys, nil
}

// InvalidateLocal purges keys from the in-process tier only. Used when an
// invalidation broadcast arrives from another instance: that instance
// already purged the shared tier, so only the local copies remain stale.
// With no keys the whole in-process tier is purged.
func (c *ConfigCache) InvalidateLocal(keys ...string) {
	if len(keys) == 0 {
		c.memory.Purge()
		return
	}
	for _, key := range keys {
		c.memory.Remove(key)
	}
}

// Status reports both tiers' state.
func (c *ConfigCache) Status(ctx context.Context) TierStatus {
	status := TierStatus{
		MemoryEntries:    c.memory.Len(),
		MemoryTTL:        c.memory.TTL(),
		SharedConfigured: c.shared != nil,
		SharedTTL:        c.config.sharedTTL(),
	}
	if c.shared != nil {
		status.SharedHealthy = c.shared.Ping(ctx).Err() == nil
	}
	return status
}

func (c *ConfigCache) sharedKey(key string) string {
	return c.config.keyPrefix() + ":" + key
}

func decodeDocument(payload []byte) (document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return doc, nil
}
