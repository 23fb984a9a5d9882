// Package report builds the read-only aggregation views behind the
// user-facing report commands. Everything here is parameterized by the
// evaluation date and returns plain data; rendering belongs to the chat
// layer.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/dates"
)

// Trend directions
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Member-level and aggregate trend thresholds, in percentage points
const (
	memberTrendThreshold    = 10.0
	aggregateTrendThreshold = 5.0
)

// Service answers report queries against the attendance store
type Service struct {
	db     *database.DB
	logger *slog.Logger
}

// NewService creates a report service
func NewService(db *database.DB) *Service {
	return &Service{db: db, logger: slog.Default()}
}

// MonthRow is one member's showing for one month
type MonthRow struct {
	UserName    string
	WorkoutDays int
	WorkoutRate float64
}

// MonthStats is one month's rows, ordered by workout days descending
type MonthStats struct {
	Year  int
	Month int
	Rows  []MonthRow
}

// MonthlySummary returns the current month and the two preceding months,
// newest first. Every registered member appears in every month; members
// with no attendance that month get a zero row.
func (s *Service) MonthlySummary(now time.Time) ([]MonthStats, error) {
	members, err := s.db.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members for monthly summary: %w", err)
	}

	var out []MonthStats
	cursor := dates.MonthStart(now)
	for i := 0; i < 3; i++ {
		year, month := cursor.Year(), int(cursor.Month())

		rollups, err := s.db.MonthlyRollupsFor(year, month)
		if err != nil {
			return nil, fmt.Errorf("failed to load monthly rollups for %d-%02d: %w", year, month, err)
		}

		seen := make(map[string]bool, len(rollups))
		for _, r := range rollups {
			seen[r.UserID] = true
		}

		ms := MonthStats{Year: year, Month: month}
		// rollup order (workout days desc) first, then zero rows
		for _, r := range rollups {
			ms.Rows = append(ms.Rows, MonthRow{
				UserName:    r.UserName,
				WorkoutDays: r.WorkoutDays,
				WorkoutRate: r.WorkoutRate,
			})
		}
		for _, m := range members {
			if seen[m.UserID] {
				continue
			}
			ms.Rows = append(ms.Rows, MonthRow{UserName: m.UserName})
		}

		out = append(out, ms)
		cursor = cursor.AddDate(0, -1, 0)
	}
	return out, nil
}

// WeekRow is one member's showing for one week
type WeekRow struct {
	UserName    string
	WorkoutDays int
	WorkoutRate float64
}

// WeekStats is one ISO week's rows
type WeekStats struct {
	Year       int
	WeekNumber int
	WeekStart  time.Time
	WeekEnd    time.Time
	Rows       []WeekRow
}

// WeeklySummary returns the four ISO weeks strictly preceding the current
// week, newest first. The in-progress week is always excluded. Weeks with
// no rollup rows are omitted entirely.
func (s *Service) WeeklySummary(now time.Time) ([]WeekStats, error) {
	thisWeekStart := dates.WeekStart(now)
	windowStart := thisWeekStart.AddDate(0, 0, -28)
	lastWeekEnd := thisWeekStart.AddDate(0, 0, -1)

	rollups, err := s.db.WeeklyRollupsBetween(windowStart, lastWeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly rollups: %w", err)
	}

	type weekKey struct {
		year int
		week int
	}
	grouped := make(map[weekKey]*WeekStats)
	var order []weekKey
	for _, r := range rollups {
		k := weekKey{r.Year, r.WeekNumber}
		ws, ok := grouped[k]
		if !ok {
			ws = &WeekStats{
				Year:       r.Year,
				WeekNumber: r.WeekNumber,
				WeekStart:  r.WeekStart,
				WeekEnd:    r.WeekEnd,
			}
			grouped[k] = ws
			order = append(order, k)
		}
		ws.Rows = append(ws.Rows, WeekRow{
			UserName:    r.UserName,
			WorkoutDays: r.WorkoutDays,
			WorkoutRate: r.WorkoutRate,
		})
	}

	// rows arrived week-start ascending; report newest week first and
	// members by workout days within each week
	out := make([]WeekStats, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		ws := grouped[order[i]]
		sort.SliceStable(ws.Rows, func(a, b int) bool {
			return ws.Rows[a].WorkoutDays > ws.Rows[b].WorkoutDays
		})
		out = append(out, *ws)
	}
	return out, nil
}
