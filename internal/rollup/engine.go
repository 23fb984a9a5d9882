// Package rollup recomputes the derived aggregates (weekly, monthly and
// per-member lifetime stats) from raw daily attendance. All recomputation
// is windowed and upserts by natural key, so reruns are idempotent and
// buckets outside the window are left frozen.
package rollup

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/metrics"
	"workout-thread-bot/internal/streak"
)

// Default trailing windows, matching the live recomputation cadence
const (
	DefaultWeeklyWindow  = 4 // weeks
	DefaultMonthlyWindow = 3 // months
)

// Engine recomputes rollups from the attendance store
type Engine struct {
	db     *database.DB
	logger *slog.Logger
}

// NewEngine creates a rollup engine
func NewEngine(db *database.DB) *Engine {
	return &Engine{
		db:     db,
		logger: slog.Default(),
	}
}

// Result reports per-stage outcomes of a full recomputation pass. The three
// stages are independent; one failing never stops the others.
type Result struct {
	WeeklyErr  error
	MonthlyErr error
	StatsErr   error
}

// AllOK reports whether every stage succeeded
func (r Result) AllOK() bool {
	return r.WeeklyErr == nil && r.MonthlyErr == nil && r.StatsErr == nil
}

// RecomputeAll runs all three stages and reports each stage's outcome.
// now must already be in the bot's fixed time zone.
func (e *Engine) RecomputeAll(now time.Time) Result {
	var res Result
	res.WeeklyErr = e.timed(metrics.StageWeekly, func() error {
		return e.RecomputeWeekly(now, DefaultWeeklyWindow)
	})
	res.MonthlyErr = e.timed(metrics.StageMonthly, func() error {
		return e.RecomputeMonthly(now, DefaultMonthlyWindow)
	})
	res.StatsErr = e.timed(metrics.StageMemberStats, func() error {
		return e.RecomputeMemberStats(now)
	})
	return res
}

func (e *Engine) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
		e.logger.Error("Rollup stage failed", "stage", stage, "error", err)
	}
	metrics.RollupDuration.WithLabelValues(stage, result).Observe(time.Since(start).Seconds())
	return err
}

// RecomputeWeekly rebuilds weekly rollups for every (user, ISO week) bucket
// with at least one attended day in the trailing window. Buckets with zero
// attended days get no row.
func (e *Engine) RecomputeWeekly(now time.Time, windowWeeks int) error {
	since := dates.Day(now).AddDate(0, 0, -7*windowWeeks)

	days, err := e.db.AttendanceSince(since)
	if err != nil {
		return fmt.Errorf("failed to load weekly attendance window: %w", err)
	}

	type weekKey struct {
		userID string
		year   int
		week   int
	}
	buckets := make(map[weekKey]*database.WeeklyRollup)
	for _, d := range days {
		year, week := dates.WeekBucket(d.Date)
		k := weekKey{d.UserID, year, week}
		b, ok := buckets[k]
		if !ok {
			b = &database.WeeklyRollup{
				UserID:     d.UserID,
				Year:       year,
				WeekNumber: week,
				WeekStart:  dates.WeekStart(d.Date),
				WeekEnd:    dates.WeekEnd(d.Date),
			}
			buckets[k] = b
		}
		b.WorkoutDays++
		// rows arrive date-ascending, so the last name seen is the latest
		b.UserName = d.UserName
	}

	for _, b := range buckets {
		b.WorkoutRate = roundRate(b.WorkoutDays, 7)
		if err := e.db.UpsertWeeklyRollup(b); err != nil {
			return err
		}
	}

	e.logger.Info("Weekly rollups recomputed", "buckets", len(buckets), "window_weeks", windowWeeks)
	return nil
}

// RecomputeMonthly rebuilds monthly rollups for every (user, month) bucket
// with at least one attended day in the trailing window.
func (e *Engine) RecomputeMonthly(now time.Time, windowMonths int) error {
	since := dates.MonthStart(now).AddDate(0, -(windowMonths - 1), 0)

	days, err := e.db.AttendanceSince(since)
	if err != nil {
		return fmt.Errorf("failed to load monthly attendance window: %w", err)
	}

	type monthKey struct {
		userID string
		year   int
		month  int
	}
	buckets := make(map[monthKey]*database.MonthlyRollup)
	for _, d := range days {
		k := monthKey{d.UserID, d.Date.Year(), int(d.Date.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &database.MonthlyRollup{
				UserID:     d.UserID,
				Year:       k.year,
				Month:      k.month,
				MonthStart: dates.MonthStart(d.Date),
				MonthEnd:   dates.MonthEnd(d.Date),
				TotalDays:  dates.DaysInMonth(d.Date),
			}
			buckets[k] = b
		}
		b.WorkoutDays++
		b.UserName = d.UserName
	}

	for _, b := range buckets {
		b.WorkoutRate = roundRate(b.WorkoutDays, b.TotalDays)
		if err := e.db.UpsertMonthlyRollup(b); err != nil {
			return err
		}
	}

	e.logger.Info("Monthly rollups recomputed", "buckets", len(buckets), "window_months", windowMonths)
	return nil
}

// RecomputeMemberStats rebuilds lifetime stats for every member with at
// least one attendance. The current streak anchors at yesterday relative to
// now: a member who has not yet logged today keeps their streak until the
// day ends, and a credit already logged today only counts from tomorrow.
func (e *Engine) RecomputeMemberStats(now time.Time) error {
	userIDs, err := e.db.AttendedUserIDs()
	if err != nil {
		return fmt.Errorf("failed to list attended users: %w", err)
	}

	// normalize to UTC calendar days so arithmetic against stored dates
	// (parsed as UTC) is exact regardless of the bot's time zone
	today := utcDay(now)
	yesterday := today.AddDate(0, 0, -1)

	var errs []error
	updated := 0
	for _, userID := range userIDs {
		attendedAsc, err := e.db.AttendedDates(userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(attendedAsc) == 0 {
			continue
		}

		// the current streak only considers dates up to yesterday; a credit
		// logged today counts from tomorrow on
		var attendedDesc []time.Time
		for i := len(attendedAsc) - 1; i >= 0; i-- {
			if !utcDay(attendedAsc[i]).After(yesterday) {
				attendedDesc = append(attendedDesc, attendedAsc[i])
			}
		}

		first := utcDay(attendedAsc[0])
		totalDays := int(today.Sub(first).Hours()/24) + 1
		if totalDays < 1 {
			totalDays = 1
		}

		stats := database.MemberStats{
			TotalWorkoutDays: len(attendedAsc),
			TotalDays:        totalDays,
			WorkoutRate:      roundRate(len(attendedAsc), totalDays),
			CurrentStreak:    streak.Current(attendedDesc, yesterday),
			MaxStreak:        streak.Max(attendedAsc),
			LastWorkoutDate:  attendedAsc[len(attendedAsc)-1],
		}
		if err := e.db.UpdateMemberStats(userID, stats); err != nil {
			errs = append(errs, err)
			continue
		}
		updated++
	}

	e.logger.Info("Member stats recomputed", "members", updated, "failed", len(errs))
	if len(errs) > 0 {
		return fmt.Errorf("member stats recomputation failed for %d member(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func utcDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundRate computes days/denominator as a percentage rounded to 1 decimal
func roundRate(days, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return math.Round(float64(days)/float64(denominator)*1000) / 10
}
