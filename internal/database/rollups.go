package database

import (
	"fmt"
	"time"
)

// WeeklyRollup is one user's aggregate for one ISO week
type WeeklyRollup struct {
	UserID      string
	UserName    string
	Year        int
	WeekNumber  int
	WeekStart   time.Time
	WeekEnd     time.Time
	WorkoutDays int
	WorkoutRate float64
}

// MonthlyRollup is one user's aggregate for one calendar month
type MonthlyRollup struct {
	UserID      string
	UserName    string
	Year        int
	Month       int
	MonthStart  time.Time
	MonthEnd    time.Time
	WorkoutDays int
	TotalDays   int
	WorkoutRate float64
}

// UpsertWeeklyRollup inserts or replaces the aggregate for the rollup's
// natural key (user_id, year, week_number).
func (db *DB) UpsertWeeklyRollup(r *WeeklyRollup) error {
	_, err := db.conn.Exec(`
		INSERT INTO weekly_rollup (
			user_id, user_name, year, week_number, week_start, week_end,
			workout_days, workout_rate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year, week_number) DO UPDATE SET
			user_name = excluded.user_name,
			week_start = excluded.week_start,
			week_end = excluded.week_end,
			workout_days = excluded.workout_days,
			workout_rate = excluded.workout_rate,
			updated_at = excluded.updated_at
	`, r.UserID, r.UserName, r.Year, r.WeekNumber,
		formatDate(r.WeekStart), formatDate(r.WeekEnd),
		r.WorkoutDays, r.WorkoutRate, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert weekly rollup: %w", err)
	}
	return nil
}

// UpsertMonthlyRollup inserts or replaces the aggregate for the rollup's
// natural key (user_id, year, month).
func (db *DB) UpsertMonthlyRollup(r *MonthlyRollup) error {
	_, err := db.conn.Exec(`
		INSERT INTO monthly_rollup (
			user_id, user_name, year, month, month_start, month_end,
			workout_days, total_days, workout_rate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year, month) DO UPDATE SET
			user_name = excluded.user_name,
			month_start = excluded.month_start,
			month_end = excluded.month_end,
			workout_days = excluded.workout_days,
			total_days = excluded.total_days,
			workout_rate = excluded.workout_rate,
			updated_at = excluded.updated_at
	`, r.UserID, r.UserName, r.Year, r.Month,
		formatDate(r.MonthStart), formatDate(r.MonthEnd),
		r.WorkoutDays, r.TotalDays, r.WorkoutRate, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert monthly rollup: %w", err)
	}
	return nil
}

// WeeklyRollupsBetween returns weekly rollups whose week lies fully inside
// [start, end], ordered oldest week first then by user name.
func (db *DB) WeeklyRollupsBetween(start, end time.Time) ([]*WeeklyRollup, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, user_name, year, week_number, week_start, week_end,
		       workout_days, workout_rate
		FROM weekly_rollup
		WHERE week_start >= ? AND week_end <= ?
		ORDER BY week_start ASC, user_name ASC
	`, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly rollups: %w", err)
	}
	defer rows.Close()

	var out []*WeeklyRollup
	for rows.Next() {
		var r WeeklyRollup
		var ws, we string
		err := rows.Scan(&r.UserID, &r.UserName, &r.Year, &r.WeekNumber,
			&ws, &we, &r.WorkoutDays, &r.WorkoutRate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly rollup: %w", err)
		}
		if r.WeekStart, err = parseDate(ws); err != nil {
			return nil, err
		}
		if r.WeekEnd, err = parseDate(we); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly rollups: %w", err)
	}
	return out, nil
}

// MonthlyRollupsFor returns the rollups for one (year, month) bucket,
// ordered by workout days descending.
func (db *DB) MonthlyRollupsFor(year, month int) ([]*MonthlyRollup, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, user_name, year, month, month_start, month_end,
		       workout_days, total_days, workout_rate
		FROM monthly_rollup
		WHERE year = ? AND month = ?
		ORDER BY workout_days DESC, user_name ASC
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly rollups: %w", err)
	}
	defer rows.Close()

	var out []*MonthlyRollup
	for rows.Next() {
		var r MonthlyRollup
		var ms, me string
		err := rows.Scan(&r.UserID, &r.UserName, &r.Year, &r.Month,
			&ms, &me, &r.WorkoutDays, &r.TotalDays, &r.WorkoutRate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly rollup: %w", err)
		}
		if r.MonthStart, err = parseDate(ms); err != nil {
			return nil, err
		}
		if r.MonthEnd, err = parseDate(me); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly rollups: %w", err)
	}
	return out, nil
}
