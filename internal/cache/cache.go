// Package cache implements a namespaced key/value cache whose entries expire
// a fixed time after they are written. Expiry is checked lazily on read.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long an entry stays readable after it is written.
const DefaultTTL = 24 * time.Hour

const keySeparator = "_"

// entry is the stored JSON layout: {"timestamp": <epoch ms>, "data": ...}.
type entry struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Cache stores JSON payloads in a Store with a write timestamp.
type Cache struct {
	store   Store
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Cache over store. A zero ttl means DefaultTTL and a nil
// clock means real time.
func New(store Store, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{store: store, ttl: ttl, clock: clock, logger: logger, metrics: metrics}
}

// Key composes the storage key "<prefix>_<part1>_<part2>...".
func Key(prefix string, parts ...string) string {
	return prefix + keySeparator + strings.Join(parts, keySeparator)
}

// Get decodes the entry at (prefix, parts) into dst and reports whether it
// was present. Expired and undecodable entries are deleted and reported as
// absent. Storage read errors are logged and also reported as absent.
func (c *Cache) Get(ctx context.Context, dst any, prefix string, parts ...string) bool {
	key := Key(prefix, parts...)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}

	e, err := decodeEntry(raw)
	if err == nil {
		if c.expired(e) {
			c.metrics.CacheLookups.WithLabelValues("expired").Inc()
			c.delete(ctx, key)
			return false
		}
		err = json.Unmarshal(e.Data, dst)
	}
	if err != nil {
		c.logger.Debug("cache entry corrupt, removing", "key", key, "error", err)
		c.metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		c.delete(ctx, key)
		return false
	}

	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

// Set stores data under (prefix, parts) stamped with the current time,
// overwriting any previous entry.
func (c *Cache) Set(ctx context.Context, data any, prefix string, parts ...string) error {
	key := Key(prefix, parts...)

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode cache data %s: %w", key, err)
	}
	raw, err := json.Marshal(entry{Timestamp: c.clock.Now().UnixMilli(), Data: payload})
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Remove deletes the entry at (prefix, parts). Missing entries are not an error.
func (c *Cache) Remove(ctx context.Context, prefix string, parts ...string) error {
	if err := c.store.Delete(ctx, Key(prefix, parts...)); err != nil {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// Clear deletes every stored key starting with prefix and returns how many
// were removed.
func (c *Cache) Clear(ctx context.Context, prefix string) (int, error) {
	keys, err := c.keysWithPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return i, fmt.Errorf("clear cache: %w", err)
		}
	}
	return len(keys), nil
}

// Sweep deletes expired and undecodable entries under prefix. Get already
// does this lazily; Sweep exists for stores that would otherwise grow
// without bound.
func (c *Cache) Sweep(ctx context.Context, prefix string) (int, error) {
	keys, err := c.keysWithPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, k := range keys {
		raw, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return removed, fmt.Errorf("sweep cache: %w", err)
		}
		if !ok {
			continue
		}
		if e, err := decodeEntry(raw); err == nil && !c.expired(e) {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("sweep cache: %w", err)
		}
		removed++
	}
	c.metrics.CacheSwept.Add(float64(removed))
	return removed, nil
}

// Ping reports whether the underlying store is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Cache) expired(e entry) bool {
	return c.clock.Now().UnixMilli()-e.Timestamp > c.ttl.Milliseconds()
}

func (c *Cache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}

func (c *Cache) keysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	all, err := c.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func decodeEntry(raw string) (entry, error) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, err
	}
	if len(e.Data) == 0 {
		return entry{}, fmt.Errorf("entry has no data")
	}
	return e, nil
}
