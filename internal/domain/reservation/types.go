package reservation

import "time"

type Amenity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Question struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
}

// TimeWindow is the (start, end) pair a reservation covers.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow returns a window whose start and end are both now.
func NewTimeWindow(now time.Time) TimeWindow {
	return TimeWindow{Start: now, End: now}
}
