package when

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

// Outcome classifies a time resolution attempt. Ambiguous is distinct
// from Unresolved: a phrase was found but needs AM/PM clarification.
type Outcome int

const (
	Unresolved Outcome = iota
	Resolved
	Ambiguous
)

// Resolution is the result of ResolveTime. Time is only meaningful when
// Outcome is Resolved.
type Resolution struct {
	Outcome Outcome
	Time    schedule.TimeOfDay
}

// Options tunes time resolution policy.
type Options struct {
	// AssumePM resolves meridiem-less 1-11 o'clock phrases to PM (12 to
	// noon) instead of reporting Ambiguous. Off by default; only enable
	// it when the surrounding context is known to be a scheduling
	// utterance, and document the flag wherever it is switched on.
	AssumePM bool
}

type meridiem int

const (
	meridiemNone meridiem = iota
	meridiemAM
	meridiemPM
)

var (
	clockMeridiemRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b`)
	clock24Re       = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	halfQuarterRe   = regexp.MustCompile(`\b(half|quarter)\s+(past|to)\s+(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b`)
	oClockRe        = regexp.MustCompile(`\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+o['’]?clock\b`)
	atHourRe        = regexp.MustCompile(`\bat\s+(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b`)
	bareHourRe      = regexp.MustCompile(`^\s*(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s*$`)
)

var morningMarkers = []string{"in the morning", "this morning", "morning"}
var eveningMarkers = []string{"in the afternoon", "this afternoon", "afternoon", "in the evening", "this evening", "evening", "tonight", "at night"}

// ResolveTime extracts a time of day from text. The anchor date is the
// already-resolved meeting date (or today when none is known yet); when
// the anchor equals the reference instant's date, times that have
// already passed are rejected.
func ResolveTime(text string, anchor schedule.CalendarDate, ref time.Time, opts Options) Resolution {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Resolution{Outcome: Unresolved}
	}

	tod, outcome := parseClock(normalized, opts)
	if outcome == Resolved && isPast(tod, anchor, ref) {
		return Resolution{Outcome: Unresolved}
	}
	return Resolution{Outcome: outcome, Time: tod}
}

func parseClock(text string, opts Options) (schedule.TimeOfDay, Outcome) {
	if strings.Contains(text, "midnight") {
		return schedule.TimeOfDay{Hour: 0}, Resolved
	}
	if strings.Contains(text, "noon") || strings.Contains(text, "midday") {
		return schedule.TimeOfDay{Hour: 12}, Resolved
	}

	if m := clockMeridiemRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		mer := meridiemAM
		if m[3] == "p" {
			mer = meridiemPM
		}
		return normalizeHour(hour, minute, mer, opts)
	}

	if m := clock24Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if minute > 59 {
			return schedule.TimeOfDay{}, Unresolved
		}
		if hour == 0 || (hour >= 13 && hour <= 23) {
			// Unambiguous 24-hour clock.
			return schedule.TimeOfDay{Hour: hour, Minute: minute}, Resolved
		}
		if hour > 23 {
			return schedule.TimeOfDay{}, Unresolved
		}
		return normalizeHour(hour, minute, daypart(text), opts)
	}

	if m := halfQuarterRe.FindStringSubmatch(text); m != nil {
		hour, ok := parseHourWord(m[3])
		if !ok {
			return schedule.TimeOfDay{}, Unresolved
		}
		minute := 30
		if m[1] == "quarter" {
			minute = 15
		}
		if m[2] == "to" {
			minute = 60 - minute
			hour--
			if hour == 0 {
				hour = 12
			}
		}
		return normalizeHour(hour, minute, daypart(text), opts)
	}

	if m := oClockRe.FindStringSubmatch(text); m != nil {
		if hour, ok := parseHourWord(m[1]); ok {
			return normalizeHour(hour, 0, daypart(text), opts)
		}
		return schedule.TimeOfDay{}, Unresolved
	}

	if m := atHourRe.FindStringSubmatch(text); m != nil {
		if hour, ok := parseHourWord(m[1]); ok {
			return normalizeHour(hour, 0, daypart(text), opts)
		}
		return schedule.TimeOfDay{}, Unresolved
	}

	if m := bareHourRe.FindStringSubmatch(text); m != nil {
		if hour, ok := parseHourWord(m[1]); ok {
			return normalizeHour(hour, 0, daypart(text), opts)
		}
	}

	return schedule.TimeOfDay{}, Unresolved
}

// normalizeHour converts a 1-12 hour plus meridiem knowledge into a
// 24-hour TimeOfDay. A missing meridiem is Ambiguous unless the AssumePM
// relaxation is enabled.
func normalizeHour(hour, minute int, mer meridiem, opts Options) (schedule.TimeOfDay, Outcome) {
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return schedule.TimeOfDay{}, Unresolved
	}

	switch mer {
	case meridiemAM:
		return schedule.TimeOfDay{Hour: hour % 12, Minute: minute}, Resolved
	case meridiemPM:
		return schedule.TimeOfDay{Hour: hour%12 + 12, Minute: minute}, Resolved
	}

	if opts.AssumePM {
		return schedule.TimeOfDay{Hour: hour%12 + 12, Minute: minute}, Resolved
	}
	return schedule.TimeOfDay{Hour: hour, Minute: minute}, Ambiguous
}

// daypart infers a meridiem from spoken context like "3 in the
// afternoon".
func daypart(text string) meridiem {
	for _, marker := range eveningMarkers {
		if strings.Contains(text, marker) {
			return meridiemPM
		}
	}
	for _, marker := range morningMarkers {
		if strings.Contains(text, marker) {
			return meridiemAM
		}
	}
	return meridiemNone
}

func parseHourWord(word string) (int, bool) {
	if n, ok := smallNumbers[word]; ok {
		return n, true
	}
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isPast reports whether the anchored instant is at or before the
// reference wall clock; only same-day times can be stale at resolution
// time, booking re-validates later regardless.
func isPast(t schedule.TimeOfDay, anchor schedule.CalendarDate, ref time.Time) bool {
	if anchor != schedule.DateOf(ref) {
		return false
	}
	return !t.On(anchor).After(ref.UTC())
}
