package metrics

import (
	"context"
	"log/slog"
	"time"
)

// DB interface for store size queries
type DB interface {
	CountMembers() (int, error)
	CountAttendanceRows() (int, error)
}

// StartStoreCollector starts a background goroutine that periodically
// collects store size metrics from the database
func StartStoreCollector(ctx context.Context, db DB, interval time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect once immediately
	collectStoreSizes(db, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Store collector stopping")
			return
		case <-ticker.C:
			collectStoreSizes(db, logger)
		}
	}
}

func collectStoreSizes(db DB, logger *slog.Logger) {
	if members, err := db.CountMembers(); err != nil {
		logger.Error("Failed to count members", "error", err)
	} else {
		MembersTotal.Set(float64(members))
	}

	if rows, err := db.CountAttendanceRows(); err != nil {
		logger.Error("Failed to count attendance rows", "error", err)
	} else {
		AttendanceRowsTotal.Set(float64(rows))
	}
}
