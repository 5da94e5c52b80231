package worker

import (
	"context"
	"log/slog"
	"time"

	"bayou-board/internal/metrics"
)

// SessionStore is the subset of the database the sweeper needs.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper periodically deletes expired session rows. Validation
// already rejects expired sessions lazily, so the sweeper only keeps the
// table from accumulating dead rows; observable auth behavior is unchanged
// whether it runs or not.
type SessionSweeper struct {
	store    SessionStore
	logger   *slog.Logger
	interval time.Duration
}

// NewSessionSweeper creates a sweeper. A non-positive interval disables it.
func NewSessionSweeper(store SessionStore, logger *slog.Logger, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until the context is canceled.
func (s *SessionSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	deleted, err := s.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
		return
	}
	metrics.ObserveSessionsSwept(deleted)
	if deleted > 0 {
		s.logger.Info("swept expired sessions", "deleted", deleted)
	}
}
