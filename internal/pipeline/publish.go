package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Publisher sends a fetched month downstream.
type Publisher interface {
	Publish(ctx context.Context, month domain.MonthHistory) error
}

// PublishingFetcher forwards every non-empty fetch to a Publisher. It sits
// between the upstream client and the cache, so cache hits never publish.
// Publish failures are logged and counted but never fail the fetch.
type PublishingFetcher struct {
	inner     domain.HistoryFetcher
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewPublishingFetcher(inner domain.HistoryFetcher, publisher Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *PublishingFetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PublishingFetcher{
		inner:     inner,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

func (f *PublishingFetcher) FetchHistory(ctx context.Context, q domain.HistoryQuery) ([]domain.TemperatureRecord, error) {
	records, err := f.inner.FetchHistory(ctx, q)
	if err != nil || len(records) == 0 {
		return records, err
	}

	month := domain.MonthHistory{
		AreaID:    q.AreaID,
		Year:      q.Year,
		Month:     q.Month,
		Records:   records,
		FetchedAt: f.clock.Now().UTC(),
	}
	if err := f.publisher.Publish(ctx, month); err != nil {
		f.logger.Warn("publish month failed", "error", err,
			"area_id", q.AreaID, "year", q.Year, "month", q.Month)
		f.metrics.HistoryPublished.WithLabelValues("error").Inc()
		return records, nil
	}
	f.metrics.HistoryPublished.WithLabelValues("success").Inc()
	return records, nil
}
