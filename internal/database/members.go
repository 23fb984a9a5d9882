package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Member represents a workout community member with their lifetime stats
type Member struct {
	UserID           string
	UserName         string
	TotalWorkoutDays int
	TotalDays        int
	WorkoutRate      float64
	CurrentStreak    int
	MaxStreak        int
	LastWorkoutDate  *time.Time
	CreatedAt        int64
	UpdatedAt        int64
}

// UpsertMember inserts a member or, on conflict, updates the display name
// only. Aggregates are owned by the rollup engine and never touched here;
// the display name is last-write-wins by design.
func (db *DB) UpsertMember(userID, userName string) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO members (user_id, user_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			user_name = excluded.user_name,
			updated_at = excluded.updated_at
	`, userID, userName, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by user ID
func (db *DB) GetMember(userID string) (*Member, error) {
	var m Member
	var lastDate sql.NullString
	err := db.conn.QueryRow(`
		SELECT user_id, user_name, total_workout_days, total_days, workout_rate,
		       current_streak, max_streak, last_workout_date, created_at, updated_at
		FROM members WHERE user_id = ?
	`, userID).Scan(
		&m.UserID, &m.UserName, &m.TotalWorkoutDays, &m.TotalDays, &m.WorkoutRate,
		&m.CurrentStreak, &m.MaxStreak, &lastDate, &m.CreatedAt, &m.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if err := decodeLastWorkout(lastDate, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MemberStats holds the five lifetime fields recomputed per member
type MemberStats struct {
	TotalWorkoutDays int
	TotalDays        int
	WorkoutRate      float64
	CurrentStreak    int
	MaxStreak        int
	LastWorkoutDate  time.Time
}

// UpdateMemberStats persists a member's recomputed lifetime stats in a
// single statement so the five fields stay consistent with each other.
func (db *DB) UpdateMemberStats(userID string, s MemberStats) error {
	result, err := db.conn.Exec(`
		UPDATE members
		SET total_workout_days = ?, total_days = ?, workout_rate = ?,
		    current_streak = ?, max_streak = ?, last_workout_date = ?, updated_at = ?
		WHERE user_id = ?
	`, s.TotalWorkoutDays, s.TotalDays, s.WorkoutRate,
		s.CurrentStreak, s.MaxStreak, formatDate(s.LastWorkoutDate), time.Now().Unix(), userID)

	if err != nil {
		return fmt.Errorf("failed to update member stats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member not found")
	}
	return nil
}

// ListMembers returns all members ordered by total workout days descending
func (db *DB) ListMembers() ([]*Member, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, user_name, total_workout_days, total_days, workout_rate,
		       current_streak, max_streak, last_workout_date, created_at, updated_at
		FROM members
		ORDER BY total_workout_days DESC, user_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		var lastDate sql.NullString
		err := rows.Scan(
			&m.UserID, &m.UserName, &m.TotalWorkoutDays, &m.TotalDays, &m.WorkoutRate,
			&m.CurrentStreak, &m.MaxStreak, &lastDate, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if err := decodeLastWorkout(lastDate, &m); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// CountMembers returns the number of registered members
func (db *DB) CountMembers() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

func decodeLastWorkout(v sql.NullString, m *Member) error {
	if !v.Valid || v.String == "" {
		return nil
	}
	d, err := parseDate(v.String)
	if err != nil {
		return err
	}
	m.LastWorkoutDate = &d
	return nil
}
