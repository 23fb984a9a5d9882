package database

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAttendanceOperations(t *testing.T) {
	db := openTestDB(t)
	jun3 := date(2024, time.June, 3)

	t.Run("UpsertCreatesMemberAndRow", func(t *testing.T) {
		if err := db.UpsertAttendance("u1", "철수", jun3); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}

		m, err := db.GetMember("u1")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m == nil {
			t.Fatal("Expected member to be created alongside attendance")
		}
		if m.UserName != "철수" {
			t.Errorf("Expected user name 철수, got %s", m.UserName)
		}

		n, err := db.CountAttendance("u1", jun3, jun3)
		if err != nil {
			t.Fatalf("Failed to count attendance: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 attendance, got %d", n)
		}
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		if err := db.UpsertAttendance("u1", "철수", jun3); err != nil {
			t.Fatalf("Failed to re-upsert attendance: %v", err)
		}

		rows, err := db.CountAttendanceRows()
		if err != nil {
			t.Fatalf("Failed to count rows: %v", err)
		}
		if rows != 1 {
			t.Errorf("Expected exactly 1 row after duplicate upsert, got %d", rows)
		}
	})

	t.Run("UpsertRefreshesDisplayName", func(t *testing.T) {
		if err := db.UpsertAttendance("u1", "김철수", jun3); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}
		m, err := db.GetMember("u1")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.UserName != "김철수" {
			t.Errorf("Expected last-write-wins name 김철수, got %s", m.UserName)
		}
	})

	t.Run("AttendedDatesAscending", func(t *testing.T) {
		if err := db.UpsertAttendance("u1", "김철수", jun3.AddDate(0, 0, 2)); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}
		if err := db.UpsertAttendance("u1", "김철수", jun3.AddDate(0, 0, 1)); err != nil {
			t.Fatalf("Failed to upsert attendance: %v", err)
		}

		got, err := db.AttendedDates("u1")
		if err != nil {
			t.Fatalf("Failed to list attended dates: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 dates, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if !got[i].After(got[i-1]) {
				t.Errorf("Expected ascending dates, got %v before %v", got[i-1], got[i])
			}
		}
	})

	t.Run("AttendanceSinceFiltersWindow", func(t *testing.T) {
		days, err := db.AttendanceSince(jun3.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("Failed to query window: %v", err)
		}
		if len(days) != 2 {
			t.Errorf("Expected 2 rows on or after June 4, got %d", len(days))
		}
	})
}

func TestMemberStats(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertMember("u1", "영희"); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}

	t.Run("UpdateAndReadBack", func(t *testing.T) {
		last := date(2024, time.June, 9)
		stats := MemberStats{
			TotalWorkoutDays: 10,
			TotalDays:        30,
			WorkoutRate:      33.3,
			CurrentStreak:    2,
			MaxStreak:        5,
			LastWorkoutDate:  last,
		}
		if err := db.UpdateMemberStats("u1", stats); err != nil {
			t.Fatalf("Failed to update stats: %v", err)
		}

		m, err := db.GetMember("u1")
		if err != nil {
			t.Fatalf("Failed to get member: %v", err)
		}
		if m.TotalWorkoutDays != 10 || m.WorkoutRate != 33.3 || m.MaxStreak != 5 {
			t.Errorf("Unexpected stats: %+v", m)
		}
		if m.LastWorkoutDate == nil || !m.LastWorkoutDate.Equal(last) {
			t.Errorf("Expected last workout %v, got %v", last, m.LastWorkoutDate)
		}
	})

	t.Run("UnknownMember", func(t *testing.T) {
		if err := db.UpdateMemberStats("nobody", MemberStats{}); err == nil {
			t.Fatal("Expected error updating unknown member")
		}
	})

	t.Run("ListOrderedByWorkoutDays", func(t *testing.T) {
		if err := db.UpsertMember("u2", "민수"); err != nil {
			t.Fatalf("Failed to upsert member: %v", err)
		}
		if err := db.UpdateMemberStats("u2", MemberStats{TotalWorkoutDays: 20, LastWorkoutDate: date(2024, time.June, 9)}); err != nil {
			t.Fatalf("Failed to update stats: %v", err)
		}

		members, err := db.ListMembers()
		if err != nil {
			t.Fatalf("Failed to list members: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(members))
		}
		if members[0].UserID != "u2" {
			t.Errorf("Expected u2 (20 days) first, got %s", members[0].UserID)
		}
	})
}

func TestRollupUpserts(t *testing.T) {
	db := openTestDB(t)

	// rollup rows reference members(user_id)
	if err := db.UpsertMember("u1", "철수"); err != nil {
		t.Fatalf("Failed to upsert member: %v", err)
	}

	t.Run("WeeklyNaturalKey", func(t *testing.T) {
		r := &WeeklyRollup{
			UserID: "u1", UserName: "철수",
			Year: 2024, WeekNumber: 23,
			WeekStart: date(2024, time.June, 3), WeekEnd: date(2024, time.June, 9),
			WorkoutDays: 3, WorkoutRate: 42.9,
		}
		if err := db.UpsertWeeklyRollup(r); err != nil {
			t.Fatalf("Failed to upsert weekly rollup: %v", err)
		}

		// same key, new values: must replace, not duplicate
		r.WorkoutDays = 4
		r.WorkoutRate = 57.1
		if err := db.UpsertWeeklyRollup(r); err != nil {
			t.Fatalf("Failed to re-upsert weekly rollup: %v", err)
		}

		got, err := db.WeeklyRollupsBetween(date(2024, time.June, 3), date(2024, time.June, 9))
		if err != nil {
			t.Fatalf("Failed to query weekly rollups: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Expected 1 rollup row, got %d", len(got))
		}
		if got[0].WorkoutDays != 4 || got[0].WorkoutRate != 57.1 {
			t.Errorf("Expected updated values, got %+v", got[0])
		}
	})

	t.Run("WeeklyWindowIsInclusive", func(t *testing.T) {
		// a week only half inside the window must be excluded
		got, err := db.WeeklyRollupsBetween(date(2024, time.June, 5), date(2024, time.June, 9))
		if err != nil {
			t.Fatalf("Failed to query weekly rollups: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no rollups with week partially outside window, got %d", len(got))
		}
	})

	t.Run("MonthlyNaturalKey", func(t *testing.T) {
		r := &MonthlyRollup{
			UserID: "u1", UserName: "철수",
			Year: 2024, Month: 6,
			MonthStart: date(2024, time.June, 1), MonthEnd: date(2024, time.June, 30),
			WorkoutDays: 10, TotalDays: 30, WorkoutRate: 33.3,
		}
		if err := db.UpsertMonthlyRollup(r); err != nil {
			t.Fatalf("Failed to upsert monthly rollup: %v", err)
		}
		r.WorkoutDays = 11
		if err := db.UpsertMonthlyRollup(r); err != nil {
			t.Fatalf("Failed to re-upsert monthly rollup: %v", err)
		}

		got, err := db.MonthlyRollupsFor(2024, 6)
		if err != nil {
			t.Fatalf("Failed to query monthly rollups: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Expected 1 rollup row, got %d", len(got))
		}
		if got[0].WorkoutDays != 11 {
			t.Errorf("Expected updated workout days 11, got %d", got[0].WorkoutDays)
		}
	})
}
