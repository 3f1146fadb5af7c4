package backup

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Scheduler struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

func NewScheduler(manager *Manager, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		manager:  manager,
		interval: interval,
		logger:   logger,
	}
}

// Start takes a backup every interval until ctx is cancelled. It blocks.
// A non-positive interval returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info().Msg("scheduled backups disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("scheduled backups started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduled backups stopped")
			return
		case <-ticker.C:
			if _, err := s.manager.Create(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
		}
	}
}
