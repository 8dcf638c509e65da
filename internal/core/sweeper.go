package core

// sweeper.go expires idle sessions in the background. The sweeper runs
// until its context is cancelled; a failed or slow sweep never stops the
// application.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often idle sessions are checked.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper removes sessions idle longer than the configured TTL
// every interval until ctx is cancelled. It blocks; run it in a goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval,
		"ttl", s.cfg.SessionTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if n := s.Sweep(); n > 0 {
				slog.Info("expired idle sessions",
					"sessions_removed", n,
					"sessions_live", s.SessionCount(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

// Sweep removes every session idle longer than the TTL and returns how many
// were removed.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
