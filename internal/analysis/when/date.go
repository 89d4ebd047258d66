// Package when turns free-form date and time phrases into calendar-exact
// values. Resolution is pure and deterministic: the same text and the
// same reference instant always produce the same result, and text with
// no recognizable phrase resolves to nothing rather than erroring.
package when

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12,
}

const monthPattern = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

const weekdayPattern = `monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun`

var (
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	monthDayRe = regexp.MustCompile(`\b(` + monthPattern + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthPattern + `)\b(?:,?\s+(\d{4}))?`)
	slashRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	inUnitsRe  = regexp.MustCompile(`\bin\s+(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten)\s+(day|week)s?\b`)
	weekdayRe  = regexp.MustCompile(`\b(?:(next|upcoming|this|coming)\s+)?(` + weekdayPattern + `)\b`)
)

// ResolveDate extracts a calendar date from text relative to the
// reference instant. The second return value is false when no phrase
// resolves, or when the only phrase found lies in the past.
func ResolveDate(text string, ref time.Time) (schedule.CalendarDate, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return schedule.CalendarDate{}, false
	}

	today := schedule.DateOf(ref)

	attempts := []func(string, schedule.CalendarDate) (schedule.CalendarDate, bool){
		resolveISO,
		resolveMonthDay,
		resolveDayMonth,
		resolveSlash,
		resolveRelativeWords,
		resolveInUnits,
		resolveWeekday,
	}

	for _, attempt := range attempts {
		date, ok := attempt(normalized, today)
		if !ok {
			continue
		}
		if date.Before(today) {
			// Past dates are never accepted; keep trying in case a
			// different phrase in the same text still resolves.
			continue
		}
		return date, true
	}

	return schedule.CalendarDate{}, false
}

func resolveISO(text string, _ schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := isoDateRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return validDate(year, time.Month(month), day)
}

func resolveMonthDay(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := monthDayRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	month, ok := monthByName(m[1])
	if !ok {
		return schedule.CalendarDate{}, false
	}
	day, _ := strconv.Atoi(m[2])
	return datedMonthDay(month, day, m[3], today)
}

func resolveDayMonth(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := dayMonthRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	month, ok := monthByName(m[2])
	if !ok {
		return schedule.CalendarDate{}, false
	}
	day, _ := strconv.Atoi(m[1])
	return datedMonthDay(month, day, m[3], today)
}

// resolveSlash treats numeric dates as month/day, deterministically.
func resolveSlash(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := slashRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return schedule.CalendarDate{}, false
	}
	return datedMonthDay(time.Month(month), day, m[3], today)
}

func resolveRelativeWords(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	switch {
	case strings.Contains(text, "day after tomorrow"):
		return today.AddDays(2), true
	case strings.Contains(text, "tomorrow"):
		return today.AddDays(1), true
	case strings.Contains(text, "today"), strings.Contains(text, "tonight"):
		return today, true
	}
	return schedule.CalendarDate{}, false
}

func resolveInUnits(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := inUnitsRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	count, ok := smallNumbers[m[1]]
	if !ok {
		count, _ = strconv.Atoi(m[1])
	}
	if count <= 0 {
		return schedule.CalendarDate{}, false
	}
	if strings.HasPrefix(m[2], "week") {
		count *= 7
	}
	return today.AddDays(count), true
}

// resolveWeekday distinguishes "upcoming Thursday" (nearest occurrence,
// today included) from "next Thursday" (that weekday of the following
// calendar week). On a Wednesday, "upcoming Thursday" is tomorrow and
// "next Thursday" is eight days out.
func resolveWeekday(text string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	m := weekdayRe.FindStringSubmatch(text)
	if m == nil {
		return schedule.CalendarDate{}, false
	}
	target, ok := weekdays[m[2]]
	if !ok {
		return schedule.CalendarDate{}, false
	}

	refISO := isoWeekday(today.Weekday())
	targetISO := isoWeekday(target)

	if m[1] == "next" {
		// Jump to Monday of the following week, then forward to the
		// target weekday.
		return today.AddDays(8 - refISO + targetISO - 1), true
	}

	// "upcoming", "this", "coming", or a bare weekday: the nearest
	// occurrence at or after today.
	return today.AddDays((targetISO - refISO + 7) % 7), true
}

// isoWeekday numbers days Monday=1 through Sunday=7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func monthByName(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	month, ok := months[name[:3]]
	return month, ok
}

// datedMonthDay fills in a missing year with the next occurrence of the
// month/day at or after today.
func datedMonthDay(month time.Month, day int, yearText string, today schedule.CalendarDate) (schedule.CalendarDate, bool) {
	if yearText != "" {
		year, _ := strconv.Atoi(yearText)
		return validDate(year, month, day)
	}

	date, ok := validDate(today.Year, month, day)
	if !ok {
		return schedule.CalendarDate{}, false
	}
	if date.Before(today) {
		return validDate(today.Year+1, month, day)
	}
	return date, true
}

// validDate rejects impossible combinations like February 30th, which
// time.Date would otherwise normalize into March.
func validDate(year int, month time.Month, day int) (schedule.CalendarDate, bool) {
	if day < 1 || day > 31 || month < time.January || month > time.December {
		return schedule.CalendarDate{}, false
	}
	candidate := schedule.CalendarDate{Year: year, Month: month, Day: day}
	if normalized := schedule.DateOf(candidate.Midnight()); normalized != candidate {
		return schedule.CalendarDate{}, false
	}
	return candidate, true
}
