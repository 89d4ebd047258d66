package convo

import (
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

// Session accumulates the slot values for one scheduling conversation.
// Every slot is independently unset until a turn resolves it.
type Session struct {
	ID               string                  `json:"id"`
	RequesterName    string                  `json:"requesterName,omitempty"`
	MeetingDate      *schedule.CalendarDate  `json:"meetingDate,omitempty"`
	MeetingTime      *schedule.TimeOfDay     `json:"meetingTime,omitempty"`
	Title            string                  `json:"title,omitempty"`
	BookingCompleted bool                    `json:"bookingCompleted"`
	CreatedAt        time.Time               `json:"createdAt"`
	LastUpdated      time.Time               `json:"lastUpdated"`
}

// Complete reports whether every slot required for booking is resolved.
// The title is optional and defaulted downstream.
func (s Session) Complete() bool {
	return s.RequesterName != "" && s.MeetingDate != nil && s.MeetingTime != nil
}

// Start combines the resolved date and time into the meeting instant.
// Only meaningful when Complete.
func (s Session) Start() time.Time {
	return s.MeetingTime.On(*s.MeetingDate)
}

// Update carries newly-extracted slot values. Nil fields leave the
// session untouched on merge, so a turn that fails to resolve a slot
// can never blank out an earlier resolution.
type Update struct {
	RequesterName *string
	MeetingDate   *schedule.CalendarDate
	MeetingTime   *schedule.TimeOfDay
	Title         *string
}

// Empty reports whether the update carries no new values.
func (u Update) Empty() bool {
	return u.RequesterName == nil && u.MeetingDate == nil && u.MeetingTime == nil && u.Title == nil
}
