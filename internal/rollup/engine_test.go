package rollup

import (
	"testing"
	"time"

	"workout-thread-bot/internal/database"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustAttend(t *testing.T, db *database.DB, userID, name string, days ...time.Time) {
	t.Helper()
	for _, d := range days {
		if err := db.UpsertAttendance(userID, name, d); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}
	}
}

func TestRecomputeWeekly(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(db)

	// Mon-Wed of the week 2024-06-03 .. 2024-06-09
	mustAttend(t, db, "a", "철수",
		date(2024, time.June, 3), date(2024, time.June, 4), date(2024, time.June, 5))

	now := date(2024, time.June, 10)
	if err := engine.RecomputeWeekly(now, DefaultWeeklyWindow); err != nil {
		t.Fatalf("Failed to recompute weekly: %v", err)
	}

	rollups, err := db.WeeklyRollupsBetween(date(2024, time.June, 3), date(2024, time.June, 9))
	if err != nil {
		t.Fatalf("Failed to query rollups: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("Expected 1 rollup, got %d", len(rollups))
	}

	r := rollups[0]
	if r.WorkoutDays != 3 {
		t.Errorf("Expected 3 workout days, got %d", r.WorkoutDays)
	}
	if r.WorkoutRate != 42.9 {
		t.Errorf("Expected rate 42.9, got %v", r.WorkoutRate)
	}
	if r.Year != 2024 || r.WeekNumber != 23 {
		t.Errorf("Expected bucket (2024, 23), got (%d, %d)", r.Year, r.WeekNumber)
	}
	if !r.WeekStart.Equal(date(2024, time.June, 3)) || !r.WeekEnd.Equal(date(2024, time.June, 9)) {
		t.Errorf("Unexpected week bounds: %v .. %v", r.WeekStart, r.WeekEnd)
	}
}

func TestRecomputeWeeklyNoZeroRows(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(db)

	// member exists but has no attendance in any week
	if err := db.UpsertMember("idle", "영희"); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}
	mustAttend(t, db, "a", "철수", date(2024, time.June, 3))

	if err := engine.RecomputeWeekly(date(2024, time.June, 10), DefaultWeeklyWindow); err != nil {
		t.Fatalf("Failed to recompute weekly: %v", err)
	}

	rollups, err := db.WeeklyRollupsBetween(date(2024, time.May, 1), date(2024, time.June, 30))
	if err != nil {
		t.Fatalf("Failed to query rollups: %v", err)
	}
	for _, r := range rollups {
		if r.UserID == "idle" {
			t.Errorf("Expected no rollup row for member with zero attendance, got %+v", r)
		}
		if r.WorkoutDays == 0 {
			t.Errorf("Expected no zero-day rollup rows, got %+v", r)
		}
	}
}

func TestRecomputeMonthly(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(db)

	// 10 distinct days in a 30-day month
	for i := 0; i < 10; i++ {
		mustAttend(t, db, "a", "철수", date(2024, time.June, 1+2*i))
	}

	if err := engine.RecomputeMonthly(date(2024, time.June, 25), DefaultMonthlyWindow); err != nil {
		t.Fatalf("Failed to recompute monthly: %v", err)
	}

	rollups, err := db.MonthlyRollupsFor(2024, 6)
	if err != nil {
		t.Fatalf("Failed to query rollups: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("Expected 1 rollup, got %d", len(rollups))
	}

	r := rollups[0]
	if r.WorkoutDays != 10 || r.TotalDays != 30 {
		t.Errorf("Expected 10/30 days, got %d/%d", r.WorkoutDays, r.TotalDays)
	}
	if r.WorkoutRate != 33.3 {
		t.Errorf("Expected rate 33.3, got %v", r.WorkoutRate)
	}
}

func TestRecomputeMemberStats(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(db)
	now := date(2024, time.June, 10)

	t.Run("YesterdayAnchoredStreak", func(t *testing.T) {
		// attended the 8th and 9th but not the 10th: streak must hold at 2
		mustAttend(t, db, "a", "철수", date(2024, time.June, 8), date(2024, time.June, 9))

		if err := engine.RecomputeMemberStats(now); err != nil {
			t.Fatalf("Failed to recompute member stats: %v", err)
		}

		m, err := db.GetMember("a")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.CurrentStreak != 2 {
			t.Errorf("Expected current streak 2, got %d", m.CurrentStreak)
		}
		if m.MaxStreak != 2 {
			t.Errorf("Expected max streak 2, got %d", m.MaxStreak)
		}
		if m.TotalWorkoutDays != 2 {
			t.Errorf("Expected 2 total workout days, got %d", m.TotalWorkoutDays)
		}
		// first attendance June 8, evaluated June 10
		if m.TotalDays != 3 {
			t.Errorf("Expected 3 total days, got %d", m.TotalDays)
		}
		if m.LastWorkoutDate == nil || !m.LastWorkoutDate.Equal(date(2024, time.June, 9)) {
			t.Errorf("Expected last workout June 9, got %v", m.LastWorkoutDate)
		}
	})

	t.Run("TodayNotCountedUntilTomorrow", func(t *testing.T) {
		// attended yesterday and today: today's credit is ignored until the
		// day ends, so the streak stays anchored at yesterday
		mustAttend(t, db, "c", "민수", date(2024, time.June, 9), date(2024, time.June, 10))

		if err := engine.RecomputeMemberStats(now); err != nil {
			t.Fatalf("Failed to recompute member stats: %v", err)
		}

		m, err := db.GetMember("c")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.CurrentStreak != 1 {
			t.Errorf("Expected current streak 1 anchored at yesterday, got %d", m.CurrentStreak)
		}
		if m.MaxStreak != 2 {
			t.Errorf("Expected max streak 2, got %d", m.MaxStreak)
		}
		if m.LastWorkoutDate == nil || !m.LastWorkoutDate.Equal(date(2024, time.June, 10)) {
			t.Errorf("Expected last workout June 10, got %v", m.LastWorkoutDate)
		}
	})

	t.Run("TodayOnlyHasNoStreakYet", func(t *testing.T) {
		mustAttend(t, db, "d", "지민", date(2024, time.June, 10))

		if err := engine.RecomputeMemberStats(now); err != nil {
			t.Fatalf("Failed to recompute member stats: %v", err)
		}

		m, err := db.GetMember("d")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.CurrentStreak != 0 {
			t.Errorf("Expected current streak 0 for today-only attendance, got %d", m.CurrentStreak)
		}
		if m.MaxStreak != 1 {
			t.Errorf("Expected max streak 1, got %d", m.MaxStreak)
		}
	})

	t.Run("StaleAttendanceZeroesStreak", func(t *testing.T) {
		mustAttend(t, db, "b", "영희", date(2024, time.June, 1))

		if err := engine.RecomputeMemberStats(now); err != nil {
			t.Fatalf("Failed to recompute member stats: %v", err)
		}

		m, err := db.GetMember("b")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.CurrentStreak != 0 {
			t.Errorf("Expected current streak 0, got %d", m.CurrentStreak)
		}
		if m.MaxStreak != 1 {
			t.Errorf("Expected max streak 1, got %d", m.MaxStreak)
		}
	})
}

func TestRecomputeAllIdempotent(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(db)
	now := date(2024, time.June, 10)

	mustAttend(t, db, "a", "철수",
		date(2024, time.June, 3), date(2024, time.June, 4), date(2024, time.June, 5))

	if res := engine.RecomputeAll(now); !res.AllOK() {
		t.Fatalf("First recompute failed: %+v", res)
	}
	first, err := db.WeeklyRollupsBetween(date(2024, time.June, 3), date(2024, time.June, 9))
	if err != nil {
		t.Fatalf("Failed to query rollups: %v", err)
	}

	// duplicate credit then recompute again: downstream values must not move
	mustAttend(t, db, "a", "철수", date(2024, time.June, 4))
	if res := engine.RecomputeAll(now); !res.AllOK() {
		t.Fatalf("Second recompute failed: %+v", res)
	}
	second, err := db.WeeklyRollupsBetween(date(2024, time.June, 3), date(2024, time.June, 9))
	if err != nil {
		t.Fatalf("Failed to query rollups: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected 1 rollup each pass, got %d and %d", len(first), len(second))
	}
	if first[0].WorkoutDays != second[0].WorkoutDays || first[0].WorkoutRate != second[0].WorkoutRate {
		t.Errorf("Expected identical rollups, got %+v then %+v", first[0], second[0])
	}
}

func TestRoundRate(t *testing.T) {
	cases := []struct {
		days, denom int
		want        float64
	}{
		{3, 7, 42.9},
		{10, 30, 33.3},
		{7, 7, 100},
		{0, 7, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := roundRate(tc.days, tc.denom); got != tc.want {
			t.Errorf("roundRate(%d, %d): expected %v, got %v", tc.days, tc.denom, got, tc.want)
		}
	}
}
