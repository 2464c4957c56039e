package locale

import (
	"fmt"
	"time"
)

// BusinessZone returns a fixed zone with the given UTC offset. The business
// runs on UTC−3 all year, so no DST rules apply.
func BusinessZone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := '+'
	if secs < 0 {
		sign = '-'
	}
	abs := secs
	if abs < 0 {
		abs = -abs
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// Clock returns "now" in a fixed business zone.
type Clock func() time.Time

// NewClock returns a Clock bound to loc.
func NewClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AddDays shifts t by n calendar days, keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WeekBounds returns Monday 00:00 and Sunday 23:59:59.999999999 of the ISO
// week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0
	start := StartOfDay(AddDays(t, -offset))
	return start, EndOfDay(AddDays(start, 6))
}

// MonthBounds returns the first and last instants of t's calendar month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, EndOfDay(start.AddDate(0, 1, -1))
}

// MonthsAgo returns the first day of the month n months before t's month.
// Day-of-month overflow cannot occur because the day is pinned to 1.
func MonthsAgo(t time.Time, n int) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
