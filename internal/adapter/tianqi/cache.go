package tianqi

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-history-service/internal/cache"
	"github.com/couchcryptid/weather-history-service/internal/domain"
)

// CachePrefix namespaces history entries in the expiring cache.
const CachePrefix = "weather_"

// CachedFetcher wraps a HistoryFetcher with the expiring cache, keyed by
// (area, year, month).
type CachedFetcher struct {
	inner  domain.HistoryFetcher
	cache  *cache.Cache
	logger *slog.Logger
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.HistoryFetcher, c *cache.Cache, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: c, logger: logger}
}

func (c *CachedFetcher) FetchHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.TemperatureRecord, error) {
	var records []domain.TemperatureRecord
	if c.cache.Get(ctx, &records, CachePrefix, q.AreaID, q.Year, q.Month) && len(records) > 0 {
		c.logger.Debug("history cache hit", "area_id", q.AreaID, "year", q.Year, "month", q.Month)
		return records, nil
	}

	records, err := c.inner.FetchHistory(ctx, q)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty months so a transient "no data" page is retried.
	if len(records) > 0 {
		if err := c.cache.Set(ctx, records, CachePrefix, q.AreaID, q.Year, q.Month); err != nil {
			c.logger.Warn("history cache write failed", "area_id", q.AreaID, "error", err)
		}
	}
	return records, nil
}

// Invalidate drops the cached month so the next fetch goes upstream.
func (c *CachedFetcher) Invalidate(ctx context.Context, q domain.HistoryQuery) error {
	return c.cache.Remove(ctx, CachePrefix, q.AreaID, q.Year, q.Month)
}

// Purge drops every cached month and returns how many entries were removed.
func (c *CachedFetcher) Purge(ctx context.Context) (int, error) {
	return c.cache.Clear(ctx, CachePrefix)
}
