package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/region"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the in-flight month fetches of one range.
const DefaultConcurrency = 4

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonthResult is the outcome of fetching one month of a range.
type MonthResult struct {
	Month   domain.Month               `json:"month"`
	Records []domain.TemperatureRecord `json:"records"`
}

// SeriesRequest describes one chart line: an area, a date range and the
// value to plot.
type SeriesRequest struct {
	ID     string
	Name   string
	AreaID string
	Kind   domain.SeriesKind
	Color  string
	Start  time.Time
	End    time.Time
}

// Pipeline turns date ranges into per-month history fetches.
type Pipeline struct {
	fetcher     domain.HistoryFetcher
	regions     *region.Directory
	store       Pinger
	logger      *slog.Logger
	concurrency int
}

// New creates a Pipeline. A non-positive concurrency falls back to
// DefaultConcurrency.
func New(fetcher domain.HistoryFetcher, regions *region.Directory, store Pinger, logger *slog.Logger, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		fetcher:     fetcher,
		regions:     regions,
		store:       store,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Regions returns the region directory the pipeline was built with.
func (p *Pipeline) Regions() *region.Directory {
	return p.regions
}

// Fetch returns the records of a single month.
func (p *Pipeline) Fetch(ctx context.Context, q domain.HistoryQuery) ([]domain.TemperatureRecord, error) {
	return p.fetcher.FetchHistory(ctx, q)
}

// FetchRange fetches every month from start to end inclusive, skipping
// months that have not started yet. The first fetch error cancels the
// remaining fetches and is returned. Results are in month order.
func (p *Pipeline) FetchRange(ctx context.Context, areaID string, start, end time.Time) ([]MonthResult, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	var months []domain.Month
	for _, m := range domain.MonthsBetween(start, end) {
		first, err := domain.ParseMonth(m.String())
		if err != nil {
			return nil, err
		}
		if domain.IsFutureDate(first) {
			p.logger.Debug("skipping future month", "area_id", areaID, "month", m.String())
			continue
		}
		months = append(months, m)
	}

	results := make([]MonthResult, len(months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, m := range months {
		g.Go(func() error {
			records, err := p.fetcher.FetchHistory(gctx, domain.QueryFor(areaID, m))
			if err != nil {
				return fmt.Errorf("fetch %s for area %s: %w", m, areaID, err)
			}
			results[i] = MonthResult{Month: m, Records: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("range fetched", "area_id", areaID, "months", len(results))
	return results, nil
}

// Records fetches a range and flattens it into one chronological list.
func (p *Pipeline) Records(ctx context.Context, areaID string, start, end time.Time) ([]domain.TemperatureRecord, error) {
	months, err := p.FetchRange(ctx, areaID, start, end)
	if err != nil {
		return nil, err
	}
	return Flatten(months), nil
}

// Flatten concatenates month results in order.
func Flatten(months []MonthResult) []domain.TemperatureRecord {
	var n int
	for _, m := range months {
		n += len(m.Records)
	}
	out := make([]domain.TemperatureRecord, 0, n)
	for _, m := range months {
		out = append(out, m.Records...)
	}
	return out
}

// Chart fetches every requested series and aggregates them on a shared
// date axis.
func (p *Pipeline) Chart(ctx context.Context, reqs []SeriesRequest) (domain.Chart, error) {
	series := make([]domain.Series, 0, len(reqs))
	for _, r := range reqs {
		records, err := p.Records(ctx, r.AreaID, r.Start, r.End)
		if err != nil {
			return domain.Chart{}, fmt.Errorf("series %q: %w", r.Name, err)
		}
		series = append(series, domain.Series{
			ID:      r.ID,
			Name:    r.Name,
			Kind:    r.Kind,
			Color:   r.Color,
			Records: records,
		})
	}
	return domain.BuildChart(series), nil
}

// CheckReadiness returns nil once the region directory is loaded and the
// cache store answers a ping.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if p.regions == nil || len(p.regions.Provinces()) == 0 {
		return errors.New("region directory not loaded")
	}
	if p.store == nil {
		return nil
	}
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
