package streak

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrent(t *testing.T) {
	d := date(2024, time.June, 10)

	t.Run("YesterdayAnchor", func(t *testing.T) {
		// attended d-2 and d-1 but not d: streak holds at 2 until the day ends
		attended := []time.Time{d.AddDate(0, 0, -1), d.AddDate(0, 0, -2)}
		if got := Current(attended, d.AddDate(0, 0, -1)); got != 2 {
			t.Errorf("Expected current streak 2, got %d", got)
		}
	})

	t.Run("IncludesReferenceDay", func(t *testing.T) {
		attended := []time.Time{d, d.AddDate(0, 0, -1), d.AddDate(0, 0, -2)}
		if got := Current(attended, d); got != 3 {
			t.Errorf("Expected current streak 3, got %d", got)
		}
	})

	t.Run("GapBreaksStreak", func(t *testing.T) {
		// most recent attendance two days before the reference
		attended := []time.Time{d.AddDate(0, 0, -2), d.AddDate(0, 0, -3)}
		if got := Current(attended, d); got != 0 {
			t.Errorf("Expected current streak 0, got %d", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := Current(nil, d); got != 0 {
			t.Errorf("Expected current streak 0 for no attendance, got %d", got)
		}
	})

	t.Run("SingleDay", func(t *testing.T) {
		if got := Current([]time.Time{d}, d); got != 1 {
			t.Errorf("Expected current streak 1, got %d", got)
		}
	})
}

func TestMax(t *testing.T) {
	t.Run("TwoConsecutiveDays", func(t *testing.T) {
		attended := []time.Time{date(2024, time.June, 3), date(2024, time.June, 4)}
		if got := Max(attended); got != 2 {
			t.Errorf("Expected max streak 2, got %d", got)
		}
	})

	t.Run("LongestRunWins", func(t *testing.T) {
		attended := []time.Time{
			date(2024, time.June, 1),
			date(2024, time.June, 2),
			date(2024, time.June, 3),
			// gap
			date(2024, time.June, 10),
			date(2024, time.June, 11),
		}
		if got := Max(attended); got != 3 {
			t.Errorf("Expected max streak 3, got %d", got)
		}
	})

	t.Run("LaterRunOvertakes", func(t *testing.T) {
		attended := []time.Time{
			date(2024, time.June, 1),
			// gap
			date(2024, time.June, 10),
			date(2024, time.June, 11),
			date(2024, time.June, 12),
		}
		if got := Max(attended); got != 3 {
			t.Errorf("Expected max streak 3, got %d", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := Max(nil); got != 0 {
			t.Errorf("Expected max streak 0, got %d", got)
		}
	})

	t.Run("MonthBoundary", func(t *testing.T) {
		attended := []time.Time{
			date(2024, time.June, 30),
			date(2024, time.July, 1),
		}
		if got := Max(attended); got != 2 {
			t.Errorf("Expected max streak 2 across month boundary, got %d", got)
		}
	})
}

func TestMaxAtLeastCurrent(t *testing.T) {
	// for any attendance set, max >= current
	attendedAsc := []time.Time{
		date(2024, time.June, 7),
		date(2024, time.June, 8),
		date(2024, time.June, 9),
		date(2024, time.June, 10),
	}
	attendedDesc := make([]time.Time, len(attendedAsc))
	for i, d := range attendedAsc {
		attendedDesc[len(attendedAsc)-1-i] = d
	}

	cur := Current(attendedDesc, date(2024, time.June, 10))
	max := Max(attendedAsc)
	if max < cur {
		t.Errorf("Expected max (%d) >= current (%d)", max, cur)
	}
	if cur != 4 || max != 4 {
		t.Errorf("Expected both streaks 4, got current=%d max=%d", cur, max)
	}
}
