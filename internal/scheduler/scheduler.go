// Package scheduler fires delivery cycles on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/go-band-notify/internal/pkg/clock"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) delivery.Report
}

// Scheduler runs one cycle per tick. Cycles run on the loop goroutine, so
// they never overlap in-process; a tick that arrives during a long cycle is
// dropped rather than queued.
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	runner   cycleRunner
	log      *slog.Logger
}

func New(clk clock.Clock, interval time.Duration, runner cycleRunner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:    clk,
		interval: interval,
		runner:   runner,
		log:      log.With("component", "scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info("scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("delivery cycle panicked", "panic", fmt.Sprint(r))
		}
	}()
	s.runner.RunCycle(ctx)
}
