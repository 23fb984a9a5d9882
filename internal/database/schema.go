package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Members table: one row per user ever credited with a workout. Lifetime
-- aggregates are recomputed by the rollup engine; rows are never deleted.
CREATE TABLE IF NOT EXISTS members (
    user_id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,

    -- Lifetime aggregates, derived from daily_attendance
    total_workout_days INTEGER NOT NULL DEFAULT 0,
    total_days INTEGER NOT NULL DEFAULT 0,
    workout_rate REAL NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    max_streak INTEGER NOT NULL DEFAULT 0,
    last_workout_date TEXT,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Daily attendance: one row per (date, user). attended only ever flips to 1.
CREATE TABLE IF NOT EXISTS daily_attendance (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,      -- YYYY-MM-DD
    weekday TEXT NOT NULL,   -- 월..일, derived from date
    user_id TEXT NOT NULL,
    user_name TEXT NOT NULL,
    attended BOOLEAN NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES members(user_id)
);

-- Weekly rollup: derived from daily_attendance, keyed by ISO week.
CREATE TABLE IF NOT EXISTS weekly_rollup (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    user_name TEXT NOT NULL,
    year INTEGER NOT NULL,
    week_number INTEGER NOT NULL,
    week_start TEXT NOT NULL,  -- Monday
    week_end TEXT NOT NULL,    -- Sunday
    workout_days INTEGER NOT NULL DEFAULT 0,
    workout_rate REAL NOT NULL DEFAULT 0,

    updated_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES members(user_id)
);

-- Monthly rollup: derived from daily_attendance, keyed by calendar month.
CREATE TABLE IF NOT EXISTS monthly_rollup (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    user_name TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    month_start TEXT NOT NULL,
    month_end TEXT NOT NULL,
    workout_days INTEGER NOT NULL DEFAULT 0,
    total_days INTEGER NOT NULL DEFAULT 0,
    workout_rate REAL NOT NULL DEFAULT 0,

    updated_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES members(user_id)
);

-- Natural-key uniqueness makes every write an idempotent upsert.
CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_attendance_unique ON daily_attendance(date, user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_weekly_rollup_unique ON weekly_rollup(user_id, year, week_number);
CREATE UNIQUE INDEX IF NOT EXISTS idx_monthly_rollup_unique ON monthly_rollup(user_id, year, month);

-- Indexes for daily_attendance
CREATE INDEX IF NOT EXISTS idx_daily_attendance_date ON daily_attendance(date);
CREATE INDEX IF NOT EXISTS idx_daily_attendance_user ON daily_attendance(user_id);

-- Indexes for rollup windows
CREATE INDEX IF NOT EXISTS idx_weekly_rollup_start ON weekly_rollup(week_start);
CREATE INDEX IF NOT EXISTS idx_monthly_rollup_start ON monthly_rollup(month_start);
`
