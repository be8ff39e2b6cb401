package core

// scheduler.go runs background maintenance. The session sweeper evicts
// sessions that have been idle longer than the configured timeout and
// deletes their scratch directories. It stops when its context ends.

import (
	"context"
	"log/slog"
	"time"
)

// SweeperConfig holds the idle-session sweeper settings.
type SweeperConfig struct {
	IdleTimeout   time.Duration // evict sessions unused for this long
	CheckInterval time.Duration // how often to look
}

// StartSessionSweeper evicts idle sessions every CheckInterval until ctx
// ends. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweeperConfig) {
	if cfg.IdleTimeout <= 0 || cfg.CheckInterval <= 0 {
		slog.Info("session sweeper disabled")
		return
	}

	slog.Info("session sweeper started",
		"idle_timeout", cfg.IdleTimeout.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweepSessions(cfg.IdleTimeout)
		}
	}
}

func (s *Service) sweepSessions(idle time.Duration) {
	start := time.Now()
	evicted := s.sessions.EvictIdle(idle)
	if evicted > 0 {
		slog.Info("evicted idle sessions",
			"evicted", evicted,
			"remaining", s.sessions.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
