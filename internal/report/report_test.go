package report

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

func seedWeekly(t *testing.T, db *database.DB, userID, name string, year, week int, start time.Time, days int, rate float64) {
	t.Helper()
	// rollup rows reference members(user_id)
	if err := db.UpsertMember(userID, name); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}
	err := db.UpsertWeeklyRollup(&database.WeeklyRollup{
		UserID: userID, UserName: name,
		Year: year, WeekNumber: week,
		WeekStart: start, WeekEnd: start.AddDate(0, 0, 6),
		WorkoutDays: days, WorkoutRate: rate,
	})
	if err != nil {
		t.Fatalf("Failed to seed weekly rollup: %v", err)
	}
}

func TestWeeklySummaryExcludesCurrentWeek(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	// now is Wednesday 2024-06-26; current week starts Monday 06-24
	now := date(2024, time.June, 26)

	seedWeekly(t, db, "u1", "철수", 2024, 25, date(2024, time.June, 17), 4, 57.1)
	seedWeekly(t, db, "u1", "철수", 2024, 24, date(2024, time.June, 10), 2, 28.6)
	// in-progress week: must never appear
	seedWeekly(t, db, "u1", "철수", 2024, 26, date(2024, time.June, 24), 2, 28.6)
	// older than the four-week window: must not appear either
	seedWeekly(t, db, "u1", "철수", 2024, 20, date(2024, time.May, 13), 7, 100)

	weeks, err := svc.WeeklySummary(now)
	if err != nil {
		t.Fatalf("WeeklySummary failed: %v", err)
	}

	if len(weeks) != 2 {
		t.Fatalf("Expected 2 weeks in window, got %d", len(weeks))
	}
	// newest first
	if weeks[0].WeekNumber != 25 || weeks[1].WeekNumber != 24 {
		t.Errorf("Expected weeks 25 then 24, got %d then %d", weeks[0].WeekNumber, weeks[1].WeekNumber)
	}
	for _, w := range weeks {
		if w.WeekNumber == 26 || w.WeekNumber == 20 {
			t.Errorf("Week %d must be outside the reporting window", w.WeekNumber)
		}
	}
}

func TestMonthlySummaryZeroFills(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	now := date(2024, time.June, 26)

	if err := db.UpsertMember("u1", "철수"); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}
	if err := db.UpsertMember("u2", "영희"); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}

	err := db.UpsertMonthlyRollup(&database.MonthlyRollup{
		UserID: "u1", UserName: "철수",
		Year: 2024, Month: 6,
		MonthStart: date(2024, time.June, 1), MonthEnd: date(2024, time.June, 30),
		WorkoutDays: 10, TotalDays: 30, WorkoutRate: 33.3,
	})
	if err != nil {
		t.Fatalf("Failed to seed monthly rollup: %v", err)
	}

	months, err := svc.MonthlySummary(now)
	if err != nil {
		t.Fatalf("MonthlySummary failed: %v", err)
	}

	if len(months) != 3 {
		t.Fatalf("Expected 3 months, got %d", len(months))
	}
	if months[0].Month != 6 || months[1].Month != 5 || months[2].Month != 4 {
		t.Errorf("Expected June, May, April; got %d, %d, %d",
			months[0].Month, months[1].Month, months[2].Month)
	}

	june := months[0]
	if len(june.Rows) != 2 {
		t.Fatalf("Expected every member in June, got %d rows", len(june.Rows))
	}
	if june.Rows[0].UserName != "철수" || june.Rows[0].WorkoutDays != 10 {
		t.Errorf("Expected 철수 with 10 days first, got %+v", june.Rows[0])
	}
	if june.Rows[1].UserName != "영희" || june.Rows[1].WorkoutDays != 0 {
		t.Errorf("Expected zero-filled 영희, got %+v", june.Rows[1])
	}

	// months with no rollups still list every member, zero-filled
	if len(months[1].Rows) != 2 {
		t.Errorf("Expected zero-filled May rows, got %d", len(months[1].Rows))
	}
}

func TestTrend(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	now := date(2024, time.June, 26)

	// oldest week 40%, newest week 90%: delta +50 is an upward trend
	seedWeekly(t, db, "u1", "철수", 2024, 23, date(2024, time.June, 3), 3, 40.0)
	seedWeekly(t, db, "u1", "철수", 2024, 25, date(2024, time.June, 17), 6, 90.0)
	// one week only: insufficient data
	seedWeekly(t, db, "u2", "영희", 2024, 25, date(2024, time.June, 17), 2, 28.6)

	rep, err := svc.Trend(now)
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}

	if len(rep.Members) != 2 {
		t.Fatalf("Expected 2 member trends, got %d", len(rep.Members))
	}

	var up, insufficient *MemberTrend
	for i := range rep.Members {
		switch rep.Members[i].UserName {
		case "철수":
			up = &rep.Members[i]
		case "영희":
			insufficient = &rep.Members[i]
		}
	}
	if up == nil || insufficient == nil {
		t.Fatalf("Missing expected members: %+v", rep.Members)
	}

	if up.Insufficient {
		t.Error("Expected 철수 to have enough data")
	}
	if up.Delta != 50.0 || up.Direction != TrendUp {
		t.Errorf("Expected +50 up trend, got %+v", up)
	}
	if up.FirstRate != 40.0 || up.LastRate != 90.0 {
		t.Errorf("Expected rates 40 -> 90, got %v -> %v", up.FirstRate, up.LastRate)
	}

	if !insufficient.Insufficient {
		t.Error("Expected 영희 to be flagged insufficient")
	}

	// only one analyzable member: no aggregate trend
	if rep.Overall != nil {
		t.Errorf("Expected no overall trend, got %+v", rep.Overall)
	}
}

func TestTrendClassification(t *testing.T) {
	cases := []struct {
		delta     float64
		threshold float64
		want      string
	}{
		{50, 10, TrendUp},
		{10.1, 10, TrendUp},
		{10, 10, TrendFlat},
		{-10, 10, TrendFlat},
		{-10.1, 10, TrendDown},
		{0, 10, TrendFlat},
		{6, 5, TrendUp},
		{-6, 5, TrendDown},
		{5, 5, TrendFlat},
	}
	for _, tc := range cases {
		if got := classify(tc.delta, tc.threshold); got != tc.want {
			t.Errorf("classify(%v, %v): expected %s, got %s", tc.delta, tc.threshold, got, tc.want)
		}
	}
}

func TestMemberSummaries(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	// Wednesday: three days of the current week have elapsed
	now := date(2024, time.June, 26)

	for _, d := range []time.Time{
		date(2024, time.June, 20),
		date(2024, time.June, 24),
		date(2024, time.June, 25),
	} {
		if err := db.UpsertAttendance("u1", "철수", d); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}
	}
	if err := db.UpdateMemberStats("u1", database.MemberStats{
		TotalWorkoutDays: 3, TotalDays: 7, WorkoutRate: 42.9,
		CurrentStreak: 2, MaxStreak: 2,
		LastWorkoutDate: date(2024, time.June, 25),
	}); err != nil {
		t.Fatalf("Failed to update stats: %v", err)
	}

	summaries, err := svc.MemberSummaries(now)
	if err != nil {
		t.Fatalf("MemberSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}

	s := summaries[0]
	if s.ThisWeekDays != 2 {
		t.Errorf("Expected 2 workouts this week (Mon+Tue), got %d", s.ThisWeekDays)
	}
	if s.ThisWeekElapsed != 3 {
		t.Errorf("Expected 3 elapsed days by Wednesday, got %d", s.ThisWeekElapsed)
	}
	if s.CurrentStreak != 2 || s.MaxStreak != 2 {
		t.Errorf("Unexpected streaks: %+v", s)
	}
}
