// Package scanner walks chat thread history to recover attendance credits
// that live event capture may have missed. It discovers the day threads for
// a requested date window (active and archived, paginated), extracts one
// credit per user per thread from image attachments, and folds everything
// into an explicit accumulator that the syncer persists.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/metrics"
)

// Thread is a chat thread candidate discovered from the gateway
type Thread struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Attachment is a file attached to a message
type Attachment struct {
	Filename string
}

// Message is one message from a thread's history. AuthorName is already
// resolved by the gateway (server nickname, else global display name, else
// account name; first non-empty wins).
type Message struct {
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	Attachments []Attachment
}

// Gateway is the slice of the messaging platform the scanner needs.
// ArchivedThreads returns threads newest-first; callers paginate backward
// by passing the oldest creation time seen so far as before.
type Gateway interface {
	ActiveThreads(ctx context.Context) ([]Thread, error)
	ArchivedThreads(ctx context.Context, private bool, before time.Time, limit int) ([]Thread, error)
	ThreadHistory(ctx context.Context, threadID string) ([]Message, error)
	IsPermissionError(err error) bool
}

const (
	// archivePageSize is the page size for archived-thread listing
	archivePageSize = 100
	// maxArchivePages bounds pagination per source against pathological
	// channel histories
	maxArchivePages = 10
)

// Scanner discovers attendance credits from thread history
type Scanner struct {
	gw     Gateway
	logger *slog.Logger
}

// New creates a scanner over the given gateway
func New(gw Gateway) *Scanner {
	return &Scanner{gw: gw, logger: slog.Default()}
}

// Scan walks active and archived threads for [start, end] inclusive and
// returns the merged accumulator. Permission errors on a thread source
// degrade that source to skipped; per-thread extraction errors contribute
// zero credits. Scan only fails on errors that invalidate the whole walk.
func (s *Scanner) Scan(ctx context.Context, start, end time.Time) (*Accumulator, error) {
	window := dates.Range(start, end)
	acc := NewAccumulator(window)

	s.logger.Info("Starting thread scan",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"days", len(window))

	if err := s.scanActive(ctx, window, acc); err != nil {
		return nil, err
	}
	s.scanArchived(ctx, window, acc, false)
	s.scanArchived(ctx, window, acc, true)

	s.logger.Info("Thread scan complete",
		"threads_found", acc.ThreadsFound,
		"photos_found", acc.PhotosFound,
		"users", len(acc.Names))
	return acc, nil
}

func (s *Scanner) scanActive(ctx context.Context, window []time.Time, acc *Accumulator) error {
	threads, err := s.gw.ActiveThreads(ctx)
	if err != nil {
		if s.gw.IsPermissionError(err) {
			s.logger.Warn("No permission to list active threads, skipping source", "error", err)
			metrics.ScanSourceSkipped.WithLabelValues(metrics.SourceActive).Inc()
			return nil
		}
		return fmt.Errorf("failed to list active threads: %w", err)
	}

	matched := 0
	for _, t := range threads {
		if s.scanThread(ctx, t, window, acc) {
			matched++
		}
	}
	metrics.ScanThreadsMatched.WithLabelValues(metrics.SourceActive).Add(float64(matched))
	s.logger.Info("Active thread source scanned", "threads", len(threads), "matched", matched)
	return nil
}

// scanArchived pages backward through archived threads by creation time.
// Each source stops when a full page yields zero window matches or when the
// page cap is reached.
func (s *Scanner) scanArchived(ctx context.Context, window []time.Time, acc *Accumulator, private bool) {
	source := metrics.SourceArchivedPublic
	if private {
		source = metrics.SourceArchivedPrivate
	}

	var before time.Time
	matched := 0
	for page := 1; page <= maxArchivePages; page++ {
		threads, err := s.gw.ArchivedThreads(ctx, private, before, archivePageSize)
		if err != nil {
			if s.gw.IsPermissionError(err) {
				s.logger.Info("No permission for archived threads, skipping source", "private", private)
				metrics.ScanSourceSkipped.WithLabelValues(source).Inc()
			} else {
				s.logger.Warn("Archived thread listing failed, skipping source",
					"private", private, "page", page, "error", err)
			}
			break
		}
		if len(threads) == 0 {
			break
		}

		foundInPage := 0
		for _, t := range threads {
			if s.scanThread(ctx, t, window, acc) {
				foundInPage++
			}
			before = t.CreatedAt
		}
		matched += foundInPage

		// a full page with no matches means we've paged past the window
		if foundInPage == 0 && len(threads) == archivePageSize {
			break
		}
		if len(threads) < archivePageSize {
			break
		}
	}

	metrics.ScanThreadsMatched.WithLabelValues(source).Add(float64(matched))
	s.logger.Info("Archived thread source scanned", "private", private, "matched", matched)
}

// scanThread matches one thread name against the window and, on match,
// extracts credits from its history. Returns whether the thread matched.
func (s *Scanner) scanThread(ctx context.Context, t Thread, window []time.Time, acc *Accumulator) bool {
	date, ok := dates.MatchThreadDate(t.Name, window)
	if !ok {
		return false
	}

	msgs, err := s.gw.ThreadHistory(ctx, t.ID)
	if err != nil {
		// a broken thread contributes zero credits but still counts as found
		s.logger.Warn("Failed to fetch thread history",
			"thread", t.Name, "thread_id", t.ID, "error", err)
		acc.ThreadsFound++
		return true
	}

	tr := extractCredits(date, msgs)
	acc.Merge(tr)
	metrics.ScanPhotosFound.Add(float64(len(tr.users)))

	s.logger.Debug("Scanned workout thread",
		"thread", t.Name,
		"date", date.Format("2006-01-02"),
		"credits", len(tr.users))
	return true
}

// threadResult holds credits extracted from a single thread
type threadResult struct {
	date  time.Time
	users map[string]string // userID -> display name
}

// extractCredits credits each author with at least one image attachment
// exactly once for the thread, no matter how many qualifying messages or
// attachments they posted.
func extractCredits(date time.Time, msgs []Message) *threadResult {
	tr := &threadResult{date: date, users: make(map[string]string)}
	for _, m := range msgs {
		if m.AuthorIsBot {
			continue
		}
		if !hasImageAttachment(m.Attachments) {
			continue
		}
		if _, seen := tr.users[m.AuthorID]; seen {
			continue
		}
		tr.users[m.AuthorID] = m.AuthorName
	}
	return tr
}

// imageExtensions are the attachment filename extensions that count as a
// workout photo
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImageFilename reports whether a filename counts as a workout photo,
// by extension, case-insensitively.
func IsImageFilename(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func hasImageAttachment(attachments []Attachment) bool {
	for _, a := range attachments {
		if IsImageFilename(a.Filename) {
			return true
		}
	}
	return false
}
