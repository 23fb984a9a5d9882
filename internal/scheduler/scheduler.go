// Package scheduler runs the bot's wall-clock jobs. Specs are evaluated in
// the configured time zone, so "0 10 * * *" means 10:00 KST regardless of
// where the process runs. Jobs are independent and idempotent; an overlap
// with a user-triggered reconciliation only causes redundant upserts.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner with per-job logging and panic recovery
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler evaluating specs in loc
func New(loc *time.Location) *Scheduler {
	logger := slog.Default()
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		logger: logger,
	}
}

// Add registers a named job on the given cron spec
func (s *Scheduler) Add(spec, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		s.logger.Info("Scheduled job starting", "job", name)
		job()
		s.logger.Info("Scheduled job finished", "job", name, "duration", time.Since(started))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("Scheduled job registered", "job", name, "spec", spec)
	return nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
