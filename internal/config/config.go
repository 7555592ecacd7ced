package config

import (
	"errors"
	"os"
	"time"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	CacheBackendFile     = "file"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
)

// DefaultUpstream is the origin of the weather history site.
const DefaultUpstream = "https://tianqi.2345.com"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	RelayAddr       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream history endpoint. Point UPSTREAM_BASE_URL at a relay to go
	// through it instead of calling the site directly.
	UpstreamBaseURL  string
	UpstreamTimeout  time.Duration
	FetchConcurrency int

	RelayUpstream string

	RegionTablesPath string

	// Expiring cache configuration.
	CacheBackend       string
	CacheDir           string
	CacheDSN           string
	CacheTTL           time.Duration
	CacheMemoryEntries int
	CacheSweepInterval time.Duration // 0 disables the sweeper

	// Optional publishing of fetched months.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	var sweepInterval time.Duration
	if os.Getenv("CACHE_SWEEP_INTERVAL") != "" {
		if sweepInterval, err = parseDuration("CACHE_SWEEP_INTERVAL", ""); err != nil {
			return nil, err
		}
	}

	concurrency, err := parsePositiveInt("FETCH_CONCURRENCY", 4, 48)
	if err != nil {
		return nil, err
	}

	memoryEntries, err := parsePositiveInt("CACHE_MEMORY_ENTRIES", 1000, 1_000_000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         EnvOrDefault("HTTP_ADDR", ":8080"),
		RelayAddr:        EnvOrDefault("RELAY_ADDR", ":8081"),
		LogLevel:         EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		UpstreamBaseURL:  EnvOrDefault("UPSTREAM_BASE_URL", DefaultUpstream),
		UpstreamTimeout:  upstreamTimeout,
		FetchConcurrency: concurrency,
		RelayUpstream:    EnvOrDefault("RELAY_UPSTREAM", DefaultUpstream),
		RegionTablesPath: os.Getenv("REGION_TABLES_PATH"),

		CacheBackend:       EnvOrDefault("CACHE_BACKEND", CacheBackendFile),
		CacheDir:           EnvOrDefault("CACHE_DIR", "data/cache"),
		CacheDSN:           os.Getenv("CACHE_DSN"),
		CacheTTL:           cacheTTL,
		CacheMemoryEntries: memoryEntries,
		CacheSweepInterval: sweepInterval,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: ParseBrokers(EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   EnvOrDefault("KAFKA_TOPIC", "weather-history"),
	}

	switch cfg.CacheBackend {
	case CacheBackendFile, CacheBackendPostgres, CacheBackendMemory:
	default:
		return nil, errors.New("invalid CACHE_BACKEND")
	}
	if cfg.CacheBackend == CacheBackendPostgres && cfg.CacheDSN == "" {
		return nil, errors.New("CACHE_BACKEND is postgres but CACHE_DSN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}
