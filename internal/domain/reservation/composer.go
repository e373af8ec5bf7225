package reservation

import "time"

// Composer keeps a TimeWindow consistent while date, start time and end time
// are edited independently and in any order.
type Composer struct {
	now    func() time.Time
	loc    *time.Location
	window TimeWindow
}

// NewComposer returns a composer whose window starts and ends now.
// A nil clock defaults to time.Now and a nil location to time.Local.
func NewComposer(now func() time.Time, loc *time.Location) *Composer {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Composer{now: now, loc: loc, window: NewTimeWindow(now().In(loc))}
}

func (c *Composer) Window() TimeWindow { return c.window }

func (c *Composer) Location() *time.Location { return c.loc }

func (c *Composer) SetDate(d time.Time) {
	c.window = c.window.WithDate(d, c.now(), c.loc)
}

func (c *Composer) SetStartTime(hour, minute int) {
	c.window = c.window.WithStartClock(hour, minute, c.now(), c.loc)
}

func (c *Composer) SetEndTime(hour, minute int) {
	c.window = c.window.WithEndClock(hour, minute, c.now(), c.loc)
}

func (c *Composer) SetStartDateTime(t time.Time) {
	c.window.Start = t.In(c.loc)
}

func (c *Composer) SetEndDateTime(t time.Time) {
	c.window.End = t.In(c.loc)
}
