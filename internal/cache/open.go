package cache

import (
	"context"
	"fmt"

	"github.com/couchcryptid/weather-history-service/internal/config"
)

// OpenStore builds the store selected by CACHE_BACKEND: an LRU tier in
// front of the durable tier. The returned close function releases the
// durable tier and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	fast := NewLRUStore(cfg.CacheMemoryEntries)
	noop := func() error { return nil }

	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		return NewTieredStore(fast, NewMemoryStore()), noop, nil
	case config.CacheBackendFile:
		durable, err := NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, noop, err
		}
		return NewTieredStore(fast, durable), noop, nil
	case config.CacheBackendPostgres:
		ps, err := OpenPostgres(ctx, cfg.CacheDSN)
		if err != nil {
			return nil, noop, err
		}
		return NewTieredStore(fast, ps), ps.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
