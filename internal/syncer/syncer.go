// Package syncer orchestrates a reconciliation run: scan thread history for
// a trailing window, persist the recovered credits, then recompute every
// derived aggregate. Runs are idempotent; credits already on record are
// upserted in place.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/metrics"
	"workout-thread-bot/internal/rollup"
	"workout-thread-bot/internal/scanner"
)

const (
	// persistBatchSize is how many credits are written between pauses
	persistBatchSize = 5
	// persistPause spaces out batches so a large backfill doesn't hold the
	// single write connection continuously
	persistPause = 100 * time.Millisecond
)

// Syncer runs reconciliation passes
type Syncer struct {
	db      *database.DB
	scanner *scanner.Scanner
	rollup  *rollup.Engine
	logger  *slog.Logger
}

// New creates a syncer
func New(db *database.DB, sc *scanner.Scanner, eng *rollup.Engine) *Syncer {
	return &Syncer{
		db:      db,
		scanner: sc,
		rollup:  eng,
		logger:  slog.Default(),
	}
}

// Report summarizes one reconciliation run
type Report struct {
	Days          int
	Start         time.Time
	End           time.Time
	ThreadsFound  int
	PhotosFound   int
	CreditsSaved  int
	CreditsFailed int
	WeeklyOK      bool
	MonthlyOK     bool
	StatsOK       bool
	Duration      time.Duration
}

// Success reports whether the run both persisted at least one credit and
// completed every rollup stage
func (r Report) Success() bool {
	return r.CreditsSaved > 0 && r.WeeklyOK && r.MonthlyOK && r.StatsOK
}

// Run reconciles the trailing window of days ending at now (inclusive).
// days must already be validated and escape-resolved by the caller.
func (s *Syncer) Run(ctx context.Context, days int, now time.Time) (*Report, error) {
	started := time.Now()
	metrics.SyncInProgress.Set(1)
	defer metrics.SyncInProgress.Set(0)

	end := dates.Day(now)
	start := end.AddDate(0, 0, -(days - 1))

	s.logger.Info("Starting reconciliation run", "days", days,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	acc, err := s.scanner.Scan(ctx, start, end)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("reconciliation scan failed: %w", err)
	}

	rep := &Report{
		Days:         days,
		Start:        start,
		End:          end,
		ThreadsFound: acc.ThreadsFound,
		PhotosFound:  acc.PhotosFound,
	}

	saved, failed := s.persist(ctx, acc)
	rep.CreditsSaved = saved
	rep.CreditsFailed = failed

	res := s.rollup.RecomputeAll(now)
	rep.WeeklyOK = res.WeeklyErr == nil
	rep.MonthlyOK = res.MonthlyErr == nil
	rep.StatsOK = res.StatsErr == nil

	rep.Duration = time.Since(started)
	metrics.SyncRunDuration.Observe(rep.Duration.Seconds())

	result := metrics.ResultFailure
	switch {
	case rep.Success():
		result = metrics.ResultSuccess
	case saved > 0 || res.WeeklyErr == nil || res.MonthlyErr == nil || res.StatsErr == nil:
		result = metrics.ResultPartial
	}
	metrics.SyncRunsTotal.WithLabelValues(result).Inc()

	s.logger.Info("Reconciliation run finished",
		"result", result,
		"threads", rep.ThreadsFound,
		"credits_saved", saved,
		"credits_failed", failed,
		"duration", rep.Duration)
	return rep, nil
}

// persist writes accumulated credits in small batches with a pause between
// them. Individual failures are counted, not fatal; every credit gets its
// own attempt.
func (s *Syncer) persist(ctx context.Context, acc *scanner.Accumulator) (saved, failed int) {
	type credit struct {
		date     time.Time
		userID   string
		userName string
	}

	var credits []credit
	for date, users := range acc.Credits {
		for userID, name := range users {
			credits = append(credits, credit{date, userID, name})
		}
	}
	sort.Slice(credits, func(i, j int) bool {
		if !credits[i].date.Equal(credits[j].date) {
			return credits[i].date.Before(credits[j].date)
		}
		return credits[i].userID < credits[j].userID
	})

	for i, c := range credits {
		if i > 0 && i%persistBatchSize == 0 {
			select {
			case <-ctx.Done():
				s.logger.Warn("Persist interrupted", "saved", saved, "remaining", len(credits)-i)
				failed += len(credits) - i
				return saved, failed
			case <-time.After(persistPause):
			}
		}

		if err := s.db.UpsertAttendance(c.userID, c.userName, c.date); err != nil {
			s.logger.Error("Failed to persist credit",
				"user_id", c.userID, "date", c.date.Format("2006-01-02"), "error", err)
			metrics.CreditsPersistedTotal.WithLabelValues(metrics.ResultFailure).Inc()
			failed++
			continue
		}
		metrics.CreditsPersistedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		saved++
	}
	return saved, failed
}
