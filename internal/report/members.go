package report

import (
	"fmt"
	"time"

	"workout-thread-bot/internal/dates"
)

// MemberSummary is one member's lifetime stats plus their in-progress week
type MemberSummary struct {
	UserName         string
	TotalWorkoutDays int
	TotalDays        int
	WorkoutRate      float64
	CurrentStreak    int
	MaxStreak        int
	LastWorkout      *time.Time
	ThisWeekDays     int
	ThisWeekElapsed  int
	ThisWeekRate     float64
}

// MemberSummaries returns every member's lifetime stats with this week's
// progress layered on, ordered by lifetime workout days descending. The
// in-progress week counts Monday through today inclusive.
func (s *Service) MemberSummaries(now time.Time) ([]MemberSummary, error) {
	members, err := s.db.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	today := dates.Day(now)
	weekStart := dates.WeekStart(now)
	elapsed := dates.MondayIndex(now) + 1

	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		thisWeek, err := s.db.CountAttendance(m.UserID, weekStart, today)
		if err != nil {
			return nil, fmt.Errorf("failed to count this week's attendance for %s: %w", m.UserID, err)
		}

		ms := MemberSummary{
			UserName:         m.UserName,
			TotalWorkoutDays: m.TotalWorkoutDays,
			TotalDays:        m.TotalDays,
			WorkoutRate:      m.WorkoutRate,
			CurrentStreak:    m.CurrentStreak,
			MaxStreak:        m.MaxStreak,
			LastWorkout:      m.LastWorkoutDate,
			ThisWeekDays:     thisWeek,
			ThisWeekElapsed:  elapsed,
		}
		if elapsed > 0 {
			ms.ThisWeekRate = float64(thisWeek) / float64(elapsed) * 100
		}
		out = append(out, ms)
	}
	return out, nil
}
