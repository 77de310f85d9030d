// Package calendar provides the working-day arithmetic every numeric leave
// rule is built on. It is pure: no clock reads, no I/O.
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Timing classifies a date relative to a reference day.
type Timing string

const (
	TimingPast    Timing = "PAST"
	TimingSameDay Timing = "SAME_DAY"
	TimingFuture  Timing = "FUTURE"
)

func DefaultRestDays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Saturday: true,
		time.Sunday:   true,
	}
}

// WorkingDays counts the days in the inclusive [start, end] range that are
// neither a weekly rest day nor present in holidays (keyed YYYY-MM-DD).
// Returns 0 when end precedes start.
func WorkingDays(start, end time.Time, restDays map[time.Weekday]bool, holidays map[string]bool) int {
	start = truncate(start)
	end = truncate(end)
	if end.Before(start) {
		return 0
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if restDays[d.Weekday()] {
			continue
		}
		if holidays[d.Format(DateLayout)] {
			continue
		}
		count++
	}
	return count
}

// RequestedDays applies the duration multiplier (1.0 full day, 0.5 half day)
// to a working-day count.
func RequestedDays(workingDays int, duration decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(workingDays)).Mul(duration)
}

// CalendarDays is the inclusive calendar-day span of [start, end], 0 when
// end precedes start.
func CalendarDays(start, end time.Time) int {
	start = truncate(start)
	end = truncate(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Classify compares calendar dates only; time of day is ignored.
func Classify(date, today time.Time) Timing {
	date = truncate(date)
	today = truncate(today)
	switch {
	case date.Before(today):
		return TimingPast
	case date.After(today):
		return TimingFuture
	default:
		return TimingSameDay
	}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
