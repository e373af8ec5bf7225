package reservation

import (
	"strconv"
	"strings"
	"time"
)

// WithDate moves the calendar day of both start and end to d's day, keeping
// each one's hour and minute. A zero start or end takes its time of day from now.
func (w TimeWindow) WithDate(d, now time.Time, loc *time.Location) TimeWindow {
	d = d.In(loc)
	return TimeWindow{
		Start: onDay(d, clockOr(w.Start, now, loc)),
		End:   onDay(d, clockOr(w.End, now, loc)),
	}
}

// WithStartClock replaces start's hour and minute. End is untouched.
func (w TimeWindow) WithStartClock(hour, minute int, now time.Time, loc *time.Location) TimeWindow {
	w.Start = atClock(dayOr(w.Start, now, loc), hour, minute)
	return w
}

// WithEndClock replaces end's hour and minute. Start is untouched.
func (w TimeWindow) WithEndClock(hour, minute int, now time.Time, loc *time.Location) TimeWindow {
	w.End = atClock(dayOr(w.End, now, loc), hour, minute)
	return w
}

type clock struct{ hour, minute int }

func clockOr(t, now time.Time, loc *time.Location) clock {
	if t.IsZero() {
		t = now
	}
	t = t.In(loc)
	return clock{hour: t.Hour(), minute: t.Minute()}
}

func dayOr(t, now time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		t = now
	}
	return t.In(loc)
}

func onDay(d time.Time, c clock) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.hour, c.minute, 0, 0, d.Location())
}

func atClock(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

// ParseClock reads "HH:MM" (seconds, if present, are ignored). It never fails:
// a missing, non-numeric or out-of-range component becomes zero.
func ParseClock(s string) (hour, minute int) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	hour = clockPart(parts, 0, 23)
	minute = clockPart(parts, 1, 59)
	return hour, minute
}

func clockPart(parts []string, i, limit int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil || n < 0 || n > limit {
		return 0
	}
	return n
}

const dateLayout = "2006-01-02"

// ParseDate reads a "YYYY-MM-DD" calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp reads a full timestamp as sent by a datetime picker.
// Layouts without an offset are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
