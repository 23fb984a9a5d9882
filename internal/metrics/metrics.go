package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Results
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultPartial = "partial"

	// Commands
	CommandSummary = "summary"
	CommandStats   = "stats"
	CommandTrend   = "trend"
	CommandSync    = "sync"
	CommandHelp    = "help"
	CommandUnknown = "unknown"

	// Rollup stages
	StageWeekly      = "weekly"
	StageMonthly     = "monthly"
	StageMemberStats = "member_stats"

	// Thread sources
	SourceActive          = "active"
	SourceArchivedPublic  = "archived_public"
	SourceArchivedPrivate = "archived_private"

	// Alert levels
	AlertError   = "error"
	AlertWarning = "warning"
	AlertInfo    = "info"
	AlertSuccess = "success"
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"result"},
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of full reconciliation runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_in_progress",
			Help: "Whether a reconciliation run is currently in flight",
		},
	)

	CreditsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_persisted_total",
			Help: "Attendance credits written during reconciliation",
		},
		[]string{"result"},
	)
)

// Scanner metrics
var (
	ScanThreadsMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_threads_matched_total",
			Help: "Threads whose name matched a date in the scan window",
		},
		[]string{"source"},
	)

	ScanPhotosFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_photos_found_total",
			Help: "Image-attachment credits discovered by the scanner",
		},
	)

	ScanSourceSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_source_skipped_total",
			Help: "Thread sources skipped due to permission errors",
		},
		[]string{"source"},
	)
)

// Rollup metrics
var (
	RollupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollup_duration_seconds",
			Help:    "Duration of rollup recomputation stages",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage", "result"},
	)
)

// Command metrics
var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Chat commands handled",
		},
		[]string{"command", "result"},
	)

	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Operator alerts sent to the alert channel",
		},
		[]string{"level"},
	)
)

// Store gauges, updated by the stats collector
var (
	MembersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "members_total",
			Help: "Registered members",
		},
	)

	AttendanceRowsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "attendance_rows_total",
			Help: "Attended daily_attendance rows",
		},
	)
)
