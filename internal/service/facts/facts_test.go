package facts_test

import (
	"testing"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/model/schedule"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
)

func TestBuildEmptySession(t *testing.T) {
	sheet := facts.Build(convo.Session{ID: "conv-1"})

	if len(sheet.Known) != 0 {
		t.Fatalf("expected no known facts, got %v", sheet.Known)
	}
	if len(sheet.Missing) != 4 {
		t.Fatalf("expected 4 missing slots, got %v", sheet.Missing)
	}
	if sheet.Ready() {
		t.Fatal("empty session should not be ready")
	}
}

func TestBuildRendersHumanReadableValues(t *testing.T) {
	date := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}
	tod := schedule.TimeOfDay{Hour: 14}
	sheet := facts.Build(convo.Session{
		ID:            "conv-1",
		RequesterName: "John Smith",
		MeetingDate:   &date,
		MeetingTime:   &tod,
	})

	values := map[string]string{}
	for _, fact := range sheet.Known {
		values[fact.Slot] = fact.Value
	}

	if values[facts.SlotDate] != "Monday, February 23, 2026" {
		t.Fatalf("date value = %q", values[facts.SlotDate])
	}
	if values[facts.SlotTime] != "02:00 PM UTC" {
		t.Fatalf("time value = %q", values[facts.SlotTime])
	}
	if values[facts.SlotName] != "John Smith" {
		t.Fatalf("name value = %q", values[facts.SlotName])
	}
}

// The title is optional: a session missing only the title is ready, and
// the sheet carries the default the booking will use.
func TestReadyWithoutTitle(t *testing.T) {
	date := schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}
	tod := schedule.TimeOfDay{Hour: 14}
	sheet := facts.Build(convo.Session{
		RequesterName: "John Smith",
		MeetingDate:   &date,
		MeetingTime:   &tod,
	})

	if !sheet.Ready() {
		t.Fatal("session missing only the title should be ready")
	}
	if sheet.TitleFallback != "Meeting with John Smith" {
		t.Fatalf("title fallback = %q", sheet.TitleFallback)
	}
}
