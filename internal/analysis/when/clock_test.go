package when_test

import (
	"testing"
	"time"

	"github.com/tarabot/scheduler/backend/internal/analysis/when"
	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

var anchorMonday = schedule.CalendarDate{Year: 2026, Month: time.February, Day: 23}

func resolveAt(t *testing.T, text string, opts when.Options) when.Resolution {
	t.Helper()
	return when.ResolveTime(text, anchorMonday, refWednesday, opts)
}

func TestResolveTimeClockForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want schedule.TimeOfDay
	}{
		{"meridiem with minutes", "2:30 PM", schedule.TimeOfDay{Hour: 14, Minute: 30}},
		{"meridiem compact", "next Monday at 2pm", schedule.TimeOfDay{Hour: 14}},
		{"meridiem dotted", "9 a.m. would be great", schedule.TimeOfDay{Hour: 9}},
		{"twelve am", "12am", schedule.TimeOfDay{Hour: 0}},
		{"twelve pm", "12 pm", schedule.TimeOfDay{Hour: 12}},
		{"twenty four hour", "14:00", schedule.TimeOfDay{Hour: 14}},
		{"midnight start", "00:30", schedule.TimeOfDay{Hour: 0, Minute: 30}},
		{"noon", "noon works", schedule.TimeOfDay{Hour: 12}},
		{"midnight", "midnight", schedule.TimeOfDay{Hour: 0}},
		{"afternoon daypart", "3 in the afternoon", schedule.TimeOfDay{Hour: 15}},
		{"morning daypart", "at 8 in the morning", schedule.TimeOfDay{Hour: 8}},
		{"evening daypart", "7:15 in the evening", schedule.TimeOfDay{Hour: 19, Minute: 15}},
		{"half past with daypart", "half past two in the afternoon", schedule.TimeOfDay{Hour: 14, Minute: 30}},
		{"quarter to with daypart", "quarter to five in the evening", schedule.TimeOfDay{Hour: 16, Minute: 45}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := resolveAt(t, tc.text, when.Options{})
			if res.Outcome != when.Resolved {
				t.Fatalf("ResolveTime(%q) outcome = %v, want Resolved", tc.text, res.Outcome)
			}
			if res.Time != tc.want {
				t.Fatalf("ResolveTime(%q) = %+v, want %+v", tc.text, res.Time, tc.want)
			}
		})
	}
}

func TestResolveTimeAmbiguousBareNumeral(t *testing.T) {
	for _, text := range []string{
		"tomorrow at 9",
		"at 4",
		"seven",
		"9:30",
		"half past two",
	} {
		res := resolveAt(t, text, when.Options{})
		if res.Outcome != when.Ambiguous {
			t.Fatalf("ResolveTime(%q) outcome = %v, want Ambiguous", text, res.Outcome)
		}
	}
}

// AssumePM is the explicit relaxation for scheduling utterances: bare
// hours book as PM instead of surfacing a clarification.
func TestResolveTimeAssumePM(t *testing.T) {
	tests := []struct {
		text string
		want schedule.TimeOfDay
	}{
		{"at 4", schedule.TimeOfDay{Hour: 16}},
		{"tomorrow at 9", schedule.TimeOfDay{Hour: 21}},
		{"at 12", schedule.TimeOfDay{Hour: 12}},
	}

	for _, tc := range tests {
		res := resolveAt(t, tc.text, when.Options{AssumePM: true})
		if res.Outcome != when.Resolved {
			t.Fatalf("ResolveTime(%q) outcome = %v, want Resolved under AssumePM", tc.text, res.Outcome)
		}
		if res.Time != tc.want {
			t.Fatalf("ResolveTime(%q) = %+v, want %+v", tc.text, res.Time, tc.want)
		}
	}
}

func TestResolveTimeNoPhrase(t *testing.T) {
	for _, text := range []string{
		"",
		"my name is Alice",
		"next Monday would be great",
	} {
		res := resolveAt(t, text, when.Options{})
		if res.Outcome != when.Unresolved {
			t.Fatalf("ResolveTime(%q) outcome = %v, want Unresolved", text, res.Outcome)
		}
	}
}

// Same-day times that have already passed are rejected at resolution
// time; the booking gate re-validates later regardless.
func TestResolveTimeRejectsPastToday(t *testing.T) {
	today := schedule.DateOf(refWednesday)

	res := when.ResolveTime("9 am", today, refWednesday, when.Options{})
	if res.Outcome != when.Unresolved {
		t.Fatalf("past same-day time outcome = %v, want Unresolved", res.Outcome)
	}

	res = when.ResolveTime("11 am", today, refWednesday, when.Options{})
	if res.Outcome != when.Resolved {
		t.Fatalf("future same-day time outcome = %v, want Resolved", res.Outcome)
	}

	// The same wall-clock time on a future date is fine.
	res = when.ResolveTime("9 am", anchorMonday, refWednesday, when.Options{})
	if res.Outcome != when.Resolved {
		t.Fatalf("future-day 9am outcome = %v, want Resolved", res.Outcome)
	}
}
