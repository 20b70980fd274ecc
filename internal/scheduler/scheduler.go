// Package scheduler wraps robfig/cron with named jobs and an overlap guard,
// so a slow sweep never stacks up behind itself.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named periodic jobs on cron expressions.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a stopped scheduler; call Start to begin running jobs.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddJob registers fn under the given cron spec. If a previous run of the
// same job is still in flight when the next tick fires, the tick is skipped.
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	var running atomic.Bool
	_, err := s.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			slog.Warn("Scheduled job still running, skipping tick", "job", name)
			return
		}
		defer running.Store(false)
		slog.Debug("Scheduled job starting", "job", name)
		fn()
		slog.Debug("Scheduled job finished", "job", name)
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}
	slog.Info("Scheduled job registered", "job", name, "spec", spec)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for in-flight jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}
