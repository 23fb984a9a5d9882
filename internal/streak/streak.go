// Package streak computes consecutive-day workout runs from lists of
// attended dates.
package streak

import "time"

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Current returns the length of the consecutive run ending at reference.
// datesDesc must hold distinct attended dates sorted most recent first.
// If the most recent attended date is not reference itself the streak is 0:
// a gap immediately before the reference breaks the run.
//
// Member-stats recomputation passes yesterday as the reference so that a
// user who has not yet logged today keeps their streak until the day ends.
func Current(datesDesc []time.Time, reference time.Time) int {
	streak := 0
	cursor := day(reference)
	for _, d := range datesDesc {
		if !day(d).Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// Max returns the longest consecutive run in datesAsc, which must hold
// distinct attended dates sorted oldest first. Empty input yields 0, a
// single date yields 1.
func Max(datesAsc []time.Time) int {
	if len(datesAsc) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(datesAsc); i++ {
		if day(datesAsc[i]).Sub(day(datesAsc[i-1])) == 24*time.Hour {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}
