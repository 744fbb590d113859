package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler periodically reaps task runs abandoned by their participants.
type Scheduler struct {
	log      *zap.Logger
	manager  *Manager
	interval time.Duration
	idle     time.Duration
}

func NewScheduler(log *zap.Logger, manager *Manager, interval, idle time.Duration) *Scheduler {
	return &Scheduler{
		log:      log,
		manager:  manager,
		interval: interval,
		idle:     idle,
	}
}

// Start runs the scheduler in a goroutine until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting idle run reaper...", zap.Duration("interval", s.interval), zap.Duration("idle", s.idle))
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runReap()
			}
		}
	}()
}

func (s *Scheduler) runReap() {
	if n := s.manager.Reap(s.idle); n > 0 {
		s.log.Info("Reaped idle task runs", zap.Int("count", n), zap.Int("active", s.manager.Active()))
	}
}
