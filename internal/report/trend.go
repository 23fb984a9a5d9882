package report

import (
	"fmt"
	"sort"
	"time"

	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/dates"
)

// WeekPoint is one week of a member's trend series, oldest first in
// MemberTrend.Weeks
type WeekPoint struct {
	WeekStart   time.Time
	WorkoutDays int
	WorkoutRate float64
}

// MemberTrend compares a member's earliest and latest week in the window.
// Insufficient is set when fewer than two weeks of data exist; the delta
// and direction are meaningless in that case.
type MemberTrend struct {
	UserName       string
	Weeks          []WeekPoint
	FirstRate      float64
	LastRate       float64
	Delta          float64
	Direction      string
	AvgWorkoutDays float64
	Insufficient   bool
}

// OverallTrend averages the first and last rates across every member with
// enough data
type OverallTrend struct {
	AvgFirstRate float64
	AvgLastRate  float64
	Delta        float64
	Direction    string
}

// TrendReport is the full trend analysis over the trailing four full weeks
type TrendReport struct {
	Members []MemberTrend
	// Overall is nil when fewer than two members have analyzable data
	Overall *OverallTrend
}

// Trend analyzes the same four-week window as WeeklySummary: the four ISO
// weeks strictly preceding the current week.
func (s *Service) Trend(now time.Time) (*TrendReport, error) {
	thisWeekStart := dates.WeekStart(now)
	windowStart := thisWeekStart.AddDate(0, 0, -28)
	lastWeekEnd := thisWeekStart.AddDate(0, 0, -1)

	rollups, err := s.db.WeeklyRollupsBetween(windowStart, lastWeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly rollups for trend: %w", err)
	}

	byUser := make(map[string][]*database.WeeklyRollup)
	var userOrder []string
	for _, r := range rollups {
		if _, ok := byUser[r.UserID]; !ok {
			userOrder = append(userOrder, r.UserID)
		}
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	rep := &TrendReport{}
	var firstRates, lastRates []float64
	for _, userID := range userOrder {
		weeks := byUser[userID]
		sort.Slice(weeks, func(a, b int) bool {
			return weeks[a].WeekStart.Before(weeks[b].WeekStart)
		})

		mt := MemberTrend{UserName: weeks[len(weeks)-1].UserName}
		totalDays := 0
		for _, w := range weeks {
			mt.Weeks = append(mt.Weeks, WeekPoint{
				WeekStart:   w.WeekStart,
				WorkoutDays: w.WorkoutDays,
				WorkoutRate: w.WorkoutRate,
			})
			totalDays += w.WorkoutDays
		}
		mt.AvgWorkoutDays = float64(totalDays) / float64(len(weeks))

		if len(weeks) < 2 {
			mt.Insufficient = true
			rep.Members = append(rep.Members, mt)
			continue
		}

		mt.FirstRate = weeks[0].WorkoutRate
		mt.LastRate = weeks[len(weeks)-1].WorkoutRate
		mt.Delta = mt.LastRate - mt.FirstRate
		mt.Direction = classify(mt.Delta, memberTrendThreshold)

		firstRates = append(firstRates, mt.FirstRate)
		lastRates = append(lastRates, mt.LastRate)
		rep.Members = append(rep.Members, mt)
	}

	if len(firstRates) >= 2 {
		ot := &OverallTrend{
			AvgFirstRate: avg(firstRates),
			AvgLastRate:  avg(lastRates),
		}
		ot.Delta = ot.AvgLastRate - ot.AvgFirstRate
		ot.Direction = classify(ot.Delta, aggregateTrendThreshold)
		rep.Overall = ot
	}
	return rep, nil
}

func classify(delta, threshold float64) string {
	switch {
	case delta > threshold:
		return TrendUp
	case delta < -threshold:
		return TrendDown
	default:
		return TrendFlat
	}
}

func avg(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
