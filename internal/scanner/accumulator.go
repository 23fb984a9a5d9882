package scanner

import "time"

// Accumulator collects credits across every thread source in a scan. Credits
// is keyed by day then user ID; a user appears at most once per day no
// matter how many matching threads contributed.
type Accumulator struct {
	Window []time.Time

	// Credits maps date -> userID -> display name
	Credits map[time.Time]map[string]string
	// Names maps userID -> latest display name seen
	Names map[string]string

	ThreadsFound int
	PhotosFound  int
}

// NewAccumulator creates an empty accumulator for the given scan window
func NewAccumulator(window []time.Time) *Accumulator {
	return &Accumulator{
		Window:  window,
		Credits: make(map[time.Time]map[string]string),
		Names:   make(map[string]string),
	}
}

// Merge folds one thread's extracted credits into the accumulator
func (a *Accumulator) Merge(tr *threadResult) {
	a.ThreadsFound++
	a.PhotosFound += len(tr.users)

	if len(tr.users) == 0 {
		return
	}
	day := a.Credits[tr.date]
	if day == nil {
		day = make(map[string]string)
		a.Credits[tr.date] = day
	}
	for userID, name := range tr.users {
		day[userID] = name
		a.Names[userID] = name
	}
}

// CreditCount returns the total number of (date, user) credits collected
func (a *Accumulator) CreditCount() int {
	n := 0
	for _, day := range a.Credits {
		n += len(day)
	}
	return n
}
