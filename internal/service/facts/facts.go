// Package facts renders the known and missing slots of a session into
// a structured sheet. The sheet is the only channel through which
// resolved ground truth reaches the dialogue engine; the model is told
// to use these values exactly and never recompute them.
package facts

import (
	"fmt"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
)

// Slot names as surfaced to the dialogue engine and API clients.
const (
	SlotName  = "requester_name"
	SlotDate  = "meeting_date"
	SlotTime  = "meeting_time"
	SlotTitle = "title"
)

// Fact is one resolved slot with its human-readable value.
type Fact struct {
	Slot  string `json:"slot"`
	Value string `json:"value"`
}

// Sheet lists everything known and still missing for one conversation.
type Sheet struct {
	Known   []Fact   `json:"known"`
	Missing []string `json:"missing"`
	// TitleFallback is the default applied at booking time when the
	// user skips the optional title.
	TitleFallback string `json:"titleFallback,omitempty"`
	Booked        bool   `json:"booked"`
}

// Build produces the fact sheet for a session.
func Build(sess convo.Session) Sheet {
	sheet := Sheet{Booked: sess.BookingCompleted}

	if sess.RequesterName != "" {
		sheet.Known = append(sheet.Known, Fact{Slot: SlotName, Value: sess.RequesterName})
	} else {
		sheet.Missing = append(sheet.Missing, SlotName)
	}

	if sess.MeetingDate != nil {
		sheet.Known = append(sheet.Known, Fact{Slot: SlotDate, Value: sess.MeetingDate.Format()})
	} else {
		sheet.Missing = append(sheet.Missing, SlotDate)
	}

	if sess.MeetingTime != nil {
		sheet.Known = append(sheet.Known, Fact{Slot: SlotTime, Value: sess.MeetingTime.Format()})
	} else {
		sheet.Missing = append(sheet.Missing, SlotTime)
	}

	if sess.Title != "" {
		sheet.Known = append(sheet.Known, Fact{Slot: SlotTitle, Value: sess.Title})
	} else {
		sheet.Missing = append(sheet.Missing, SlotTitle)
		if sess.RequesterName != "" {
			sheet.TitleFallback = DefaultTitle(sess.RequesterName)
		}
	}

	return sheet
}

// Ready reports whether every slot required for booking is known; the
// title is optional.
func (s Sheet) Ready() bool {
	for _, slot := range s.Missing {
		if slot != SlotTitle {
			return false
		}
	}
	return true
}

// DefaultTitle is the title used when the user skips the optional slot.
func DefaultTitle(name string) string {
	return fmt.Sprintf("Meeting with %s", name)
}
