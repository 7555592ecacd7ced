package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper periodically removes expired entries under one prefix.
type Sweeper struct {
	scheduler *gocron.Scheduler
	cache     *Cache
	prefix    string
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a Sweeper. Call Start to schedule it.
func NewSweeper(c *Cache, prefix string, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     c,
		prefix:    prefix,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the sweep and runs it asynchronously.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("cache sweeper started", "prefix", s.prefix, "interval", s.interval)
	return nil
}

// Stop cancels future sweeps.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	removed, err := s.cache.Sweep(ctx, s.prefix)
	if err != nil {
		s.logger.Error("cache sweep failed", "error", err, "removed", removed)
		return
	}
	s.logger.Debug("cache sweep complete", "removed", removed)
}
