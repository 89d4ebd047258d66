// Package identity extracts the requester's name from
// self-introduction phrasing in conversation turns.
package identity

import (
	"regexp"
	"strings"
)

const maxNameTokens = 3

var introRe = regexp.MustCompile(`(?i)\b(?:my name is|my name's|i am|i'm|im|this is|call me)\s+([a-z][a-z'.-]*(?:\s+[a-z][a-z'.-]*){0,3})`)

// stopwords reject introduction captures that are conversation filler
// rather than names ("I'm looking for...", "this is great").
var stopwords = map[string]bool{
	"looking": true, "trying": true, "hoping": true, "wondering": true,
	"going": true, "calling": true, "here": true, "there": true,
	"good": true, "great": true, "fine": true, "okay": true, "ok": true,
	"sure": true, "sorry": true, "ready": true, "happy": true,
	"not": true, "so": true, "very": true, "just": true, "a": true,
	"an": true, "the": true, "interested": true, "available": true,
	"free": true, "busy": true, "done": true, "all": true, "yes": true,
	"no": true, "urgent": true, "perfect": true, "awesome": true,
	"confused": true, "new": true, "back": true, "in": true, "on": true,
	"at": true, "afraid": true, "glad": true, "and": true, "but": true,
	"really": true, "actually": true, "also": true, "still": true,
	"meeting": true, "scheduling": true, "booking": true, "planning": true,
	"today": true, "tomorrow": true, "monday": true, "tuesday": true,
	"wednesday": true, "thursday": true, "friday": true, "saturday": true,
	"sunday": true, "next": true, "this": true, "upcoming": true,
}

// ResolveName scans text for a self-introduction and returns the
// candidate name in title case. Candidates led by a stopword or longer
// than three tokens are rejected.
func ResolveName(text string) (string, bool) {
	m := introRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	tokens := strings.Fields(m[1])
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.Trim(token, ".,!?")
		if token == "" {
			continue
		}
		if stopwords[strings.ToLower(token)] {
			break
		}
		cleaned = append(cleaned, titleCase(token))
	}

	if len(cleaned) == 0 || len(cleaned) > maxNameTokens {
		return "", false
	}
	return strings.Join(cleaned, " "), true
}

func titleCase(word string) string {
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
