package schedule

import "time"

// TimeOfDay is a wall-clock time with no date component, implicitly UTC.
// Keeping it separate from CalendarDate means a later date correction
// never invalidates an already-resolved time; the two are only combined
// at the moment an instant is needed.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// On anchors the time of day to a calendar date.
func (t TimeOfDay) On(d CalendarDate) time.Time {
	return d.At(t)
}

// Format renders the time the way it is read back to the user,
// e.g. "02:00 PM UTC".
func (t TimeOfDay) Format() string {
	ref := time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC)
	return ref.Format("03:04 PM") + " UTC"
}

// Request is the tuple handed to the booking collaborator once the
// session is fully resolved and confirmed.
type Request struct {
	Name     string        `json:"name"`
	Start    time.Time     `json:"start"`
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`
}

// DefaultDuration is the meeting length booked for every event.
const DefaultDuration = time.Hour
