package database

import (
	"fmt"
	"time"

	"workout-thread-bot/internal/dates"
)

// AttendanceDay is one attended (date, user) pair read back for rollups
type AttendanceDay struct {
	Date     time.Time
	UserID   string
	UserName string
}

// UpsertAttendance records one day's attendance for one user. The member
// upsert and the attendance upsert run in one transaction: either both
// apply or the record fails as a unit, so rollups never see a credited day
// without a member row. Re-applying the same record is a no-op success.
func (db *DB) UpsertAttendance(userID, userName string, date time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin attendance transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	_, err = tx.Exec(`
		INSERT INTO members (user_id, user_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			user_name = excluded.user_name,
			updated_at = excluded.updated_at
	`, userID, userName, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert member for attendance: %w", err)
	}

	// attended only ever flips to 1; duplicates collapse on the natural key
	_, err = tx.Exec(`
		INSERT INTO daily_attendance (date, weekday, user_id, user_name, attended, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(date, user_id) DO UPDATE SET
			attended = 1,
			user_name = excluded.user_name,
			updated_at = excluded.updated_at
	`, formatDate(date), dates.WeekdayLabel(date), userID, userName, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attendance: %w", err)
	}
	return nil
}

// AttendanceSince returns every attended (date, user) pair on or after the
// given date, ordered by date ascending.
func (db *DB) AttendanceSince(since time.Time) ([]AttendanceDay, error) {
	rows, err := db.conn.Query(`
		SELECT date, user_id, user_name
		FROM daily_attendance
		WHERE attended = 1 AND date >= ?
		ORDER BY date ASC
	`, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance window: %w", err)
	}
	defer rows.Close()

	return scanAttendanceDays(rows)
}

// AttendedDates returns a user's distinct attended dates, oldest first.
func (db *DB) AttendedDates(userID string) ([]time.Time, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT date
		FROM daily_attendance
		WHERE user_id = ? AND attended = 1
		ORDER BY date ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attended dates: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan attended date: %w", err)
		}
		d, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attended dates: %w", err)
	}
	return out, nil
}

// AttendedUserIDs returns every user with at least one attendance ever
func (db *DB) AttendedUserIDs() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT user_id FROM daily_attendance WHERE attended = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attended users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan attended user: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attended users: %w", err)
	}
	return out, nil
}

// CountAttendance returns a user's distinct attended dates in [start, end]
func (db *DB) CountAttendance(userID string, start, end time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(DISTINCT date)
		FROM daily_attendance
		WHERE user_id = ? AND attended = 1 AND date >= ? AND date <= ?
	`, userID, formatDate(start), formatDate(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return n, nil
}

// AttendanceBetween returns attended (date, user) pairs in [start, end]
func (db *DB) AttendanceBetween(start, end time.Time) ([]AttendanceDay, error) {
	rows, err := db.conn.Query(`
		SELECT date, user_id, user_name
		FROM daily_attendance
		WHERE attended = 1 AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance range: %w", err)
	}
	defer rows.Close()

	return scanAttendanceDays(rows)
}

// CountAttendanceRows returns the total number of attended rows
func (db *DB) CountAttendanceRows() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM daily_attendance WHERE attended = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attendance rows: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAttendanceDays(rows rowScanner) ([]AttendanceDay, error) {
	var out []AttendanceDay
	for rows.Next() {
		var a AttendanceDay
		var s string
		if err := rows.Scan(&s, &a.UserID, &a.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		d, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		a.Date = d
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}
	return out, nil
}
