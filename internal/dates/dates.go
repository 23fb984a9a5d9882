// Package dates provides the calendar arithmetic shared by the rollup
// engine, the reconciliation scanner and the schedulers: Monday-start week
// bucketing and the Korean thread-name labels used to locate a day's
// workout thread.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays holds the Korean single-character weekday labels, indexed with
// Monday = 0 through Sunday = 6.
var Weekdays = [7]string{"월", "화", "수", "목", "금", "토", "일"}

// MondayIndex returns the weekday of d with Monday = 0 and Sunday = 6.
func MondayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// WeekdayLabel returns the Korean weekday label for d.
func WeekdayLabel(d time.Time) string {
	return Weekdays[MondayIndex(d)]
}

// Day truncates t to its calendar date, preserving the location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday on or before d.
func WeekStart(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, -MondayIndex(d))
}

// WeekEnd returns the Sunday on or after d.
func WeekEnd(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 6)
}

// WeekBucket returns the ISO year and week number for d. Weeks start on
// Monday and the numbering is stable across month and year boundaries, so
// every day of one calendar week maps to the same storage key.
func WeekBucket(d time.Time) (year, week int) {
	return d.ISOWeek()
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// MonthEnd returns the last day of d's month.
func MonthEnd(d time.Time) time.Time {
	return MonthStart(d).AddDate(0, 1, -1)
}

// DaysInMonth returns the number of days in d's month.
func DaysInMonth(d time.Time) int {
	return MonthEnd(d).Day()
}

// ThreadLabel produces the canonical thread name for a date, without zero
// padding, e.g. "7월 13일 목". This is the name the bot uses when creating
// the day's thread.
func ThreadLabel(d time.Time) string {
	return fmt.Sprintf("%d월 %d일 %s", int(d.Month()), d.Day(), WeekdayLabel(d))
}

// paddings enumerates the tolerated zero-padding spellings of the month and
// day components. Historical threads were sometimes created by hand with
// padded numbers, so the matcher must accept all four combinations.
var paddings = []struct{ month, day string }{
	{"%d", "%d"},
	{"%02d", "%d"},
	{"%d", "%02d"},
	{"%02d", "%02d"},
}

// DateVariants returns the "<month>월 <day>일" spellings for d, one per
// padding rule, canonical spelling first.
func DateVariants(d time.Time) []string {
	variants := make([]string, 0, len(paddings))
	for _, p := range paddings {
		variants = append(variants,
			fmt.Sprintf(p.month+"월 "+p.day+"일", int(d.Month()), d.Day()))
	}
	return variants
}

// LabelVariants returns the full "<month>월 <day>일 <weekday>" spellings
// for d, one per padding rule.
func LabelVariants(d time.Time) []string {
	wd := WeekdayLabel(d)
	variants := DateVariants(d)
	for i, v := range variants {
		variants[i] = v + " " + wd
	}
	return variants
}

// MatchThreadDate tests a thread name against every date in order and
// returns the first date the name matches. A name matches a date when it
// contains any full label variant, or, as a looser fallback, any date-only
// variant together with at least one weekday character anywhere in the
// name. The first matching date in iteration order wins; callers pass
// dates oldest first.
func MatchThreadDate(name string, candidates []time.Time) (time.Time, bool) {
	for _, d := range candidates {
		for _, v := range LabelVariants(d) {
			if strings.Contains(name, v) {
				return d, true
			}
		}
		for _, v := range DateVariants(d) {
			if strings.Contains(name, v) && containsAnyWeekday(name) {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func containsAnyWeekday(name string) bool {
	for _, wd := range Weekdays {
		if strings.Contains(name, wd) {
			return true
		}
	}
	return false
}

// Range returns every date from start through end inclusive.
func Range(start, end time.Time) []time.Time {
	var out []time.Time
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
