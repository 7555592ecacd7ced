// Command backfill warms the history cache for one area over a month range
// and prints a per-month summary.
//
// Usage:
//
//	go run ./cmd/backfill -area 54511 -start 2023-01 -end 2023-12
//	go run ./cmd/backfill -area 54511 -start 2024-01 -end 2024-01 -refresh
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/couchcryptid/weather-history-service/internal/adapter/tianqi"
	"github.com/couchcryptid/weather-history-service/internal/cache"
	"github.com/couchcryptid/weather-history-service/internal/config"
	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/couchcryptid/weather-history-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	area := flag.String("area", "", "area id of the weather station, e.g. 54511")
	start := flag.String("start", "", "first month, YYYY-MM")
	end := flag.String("end", "", "last month, YYYY-MM")
	refresh := flag.Bool("refresh", false, "drop cached months in the range before fetching")
	purge := flag.Bool("purge", false, "drop every cached month before fetching")
	flag.Parse()

	if *area == "" || *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, options{area: *area, start: *start, end: *end, refresh: *refresh, purge: *purge}); err != nil {
		fmt.Fprintln(os.Stderr, "backfill:", err)
		os.Exit(1)
	}
}

type options struct {
	area, start, end string
	refresh, purge   bool
}

func run(ctx context.Context, out io.Writer, opts options) error {
	from, err := domain.ParseMonth(opts.start)
	if err != nil {
		return err
	}
	to, err := domain.ParseMonth(opts.end)
	if err != nil {
		return err
	}
	if err := domain.ValidateRange(from, to); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewUnregisteredMetrics()

	store, closeStore, err := cache.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck // process is exiting

	client := tianqi.NewClient(tianqi.NewHTTPClient(cfg.UpstreamTimeout), cfg.UpstreamBaseURL, logger, metrics)
	cached := tianqi.NewCachedFetcher(client, cache.New(store, cfg.CacheTTL, nil, logger, metrics), logger)

	if opts.purge {
		n, err := cached.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		logger.Info("cache purged", "removed", n)
	}
	if opts.refresh {
		for _, m := range domain.MonthsBetween(from, to) {
			if err := cached.Invalidate(ctx, domain.QueryFor(opts.area, m)); err != nil {
				return fmt.Errorf("invalidate %s: %w", m, err)
			}
		}
	}

	p := pipeline.New(cached, nil, nil, logger, cfg.FetchConcurrency)
	months, err := p.FetchRange(ctx, opts.area, from, to)
	if err != nil {
		return err
	}
	return printSummary(out, opts.area, months)
}

func printSummary(out io.Writer, area string, months []pipeline.MonthResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "AREA\tMONTH\tDAYS\tMAX HIGH\tMIN LOW\n")
	var total int
	for _, m := range months {
		total += len(m.Records)
		if len(m.Records) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t0\t-\t-\n", area, m.Month)
			continue
		}
		high, low := m.Records[0].High, m.Records[0].Low
		for _, r := range m.Records[1:] {
			high = max(high, r.High)
			low = min(low, r.Low)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%.1f\n", area, m.Month, len(m.Records), high, low)
	}
	fmt.Fprintf(tw, "\t%d months\t%d\t\t\n", len(months), total)
	return tw.Flush()
}
