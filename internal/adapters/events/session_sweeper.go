package events

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter removes up to limit expired sessions and reports how many went.
type ExpiredSessionDeleter interface {
	SweepExpiredSessions(ctx context.Context, limit int) (int64, error)
}

// SessionSweeper periodically deletes expired session rows in batches.
type SessionSweeper struct {
	logger    *slog.Logger
	sessions  ExpiredSessionDeleter
	interval  time.Duration
	batchSize int
}

func NewSessionSweeper(logger *slog.Logger, sessions ExpiredSessionDeleter, interval time.Duration, batchSize int) *SessionSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SessionSweeper{
		logger:    logger,
		sessions:  sessions,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (s *SessionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "session sweep failed",
				"module", "events.session_sweeper",
				"layer", "adapter",
				"operation", "sweep_expired_sessions",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce drains expired sessions batch by batch until a short batch signals the end.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	var total int64
	for {
		deleted, err := s.sessions.SweepExpiredSessions(ctx, s.batchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted < int64(s.batchSize) || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept",
			"module", "events.session_sweeper",
			"layer", "adapter",
			"operation", "sweep_expired_sessions",
			"outcome", "success",
			"deleted_count", total,
		)
	}
	return total, nil
}
