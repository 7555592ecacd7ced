package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-history-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-history-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-history-service/internal/adapter/tianqi"
	"github.com/couchcryptid/weather-history-service/internal/cache"
	"github.com/couchcryptid/weather-history-service/internal/config"
	"github.com/couchcryptid/weather-history-service/internal/domain"
	"github.com/couchcryptid/weather-history-service/internal/observability"
	"github.com/couchcryptid/weather-history-service/internal/pipeline"
	"github.com/couchcryptid/weather-history-service/internal/region"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regions, err := region.Load(cfg.RegionTablesPath, logger, metrics)
	if err != nil {
		logger.Error("failed to load region tables", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := cache.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open cache store", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	historyCache := cache.New(store, cfg.CacheTTL, clock, logger, metrics)
	logger.Info("cache ready", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL)

	client := tianqi.NewClient(tianqi.NewHTTPClient(cfg.UpstreamTimeout), cfg.UpstreamBaseURL, logger, metrics)

	// Publishing sits below the cache so only upstream fetches are published.
	var fetcher domain.HistoryFetcher = client
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		fetcher = pipeline.NewPublishingFetcher(client, writer, clock, logger, metrics)
		logger.Info("history publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("history publishing disabled")
	}
	fetcher = tianqi.NewCachedFetcher(fetcher, historyCache, logger)

	p := pipeline.New(fetcher, regions, historyCache, logger, cfg.FetchConcurrency)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, historyCache, logger)

	var sweeper *cache.Sweeper
	if cfg.CacheSweepInterval > 0 {
		sweeper = cache.NewSweeper(historyCache, tianqi.CachePrefix, cfg.CacheSweepInterval, logger)
		if err := sweeper.Start(); err != nil {
			logger.Error("failed to start cache sweeper", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := closeStore(); err != nil {
		logger.Error("cache store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
