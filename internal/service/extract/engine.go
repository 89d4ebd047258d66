// Package extract reconciles a conversation transcript into session
// slot values. The policy throughout is most-recent-wins: a later user
// statement about a slot supersedes an earlier one, which lets users
// change their mind mid-conversation without any retraction grammar.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/tarabot/scheduler/backend/internal/analysis/identity"
	"github.com/tarabot/scheduler/backend/internal/analysis/when"
	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/model/schedule"
	"github.com/tarabot/scheduler/backend/internal/service/session"
)

const maxTitleLength = 60

// Engine extracts slot values from transcripts and merges them into the
// session store.
type Engine struct {
	store *session.Store
	opts  when.Options
	now   func() time.Time
}

// NewEngine builds an extraction engine backed by the given store. The
// when.Options relaxation flag is threaded through to time resolution.
func NewEngine(store *session.Store, opts when.Options) *Engine {
	return &Engine{store: store, opts: opts, now: time.Now}
}

// Extract runs every resolver over the transcript and merges the
// findings into the session for conversationID, returning the merged
// session. Re-running on an identical transcript is idempotent.
func (e *Engine) Extract(_ context.Context, conversationID string, turns []convo.Turn) (convo.Session, error) {
	// One reference instant per call so the date and time resolvers can
	// never disagree about which day is "today".
	ref := e.now().UTC()

	update := convo.Update{}

	date, dateFound := resolveFirst(turns, func(text string) (schedule.CalendarDate, bool) {
		return when.ResolveDate(text, ref)
	})
	if dateFound {
		update.MeetingDate = &date
	}

	// Anchor time resolution to the date found this pass, or to the
	// date already on file, before falling back to today.
	anchor := schedule.DateOf(ref)
	if dateFound {
		anchor = date
	} else if known := e.store.GetOrCreate(conversationID); known.MeetingDate != nil {
		anchor = *known.MeetingDate
	}

	tod, todFound := resolveFirst(turns, func(text string) (schedule.TimeOfDay, bool) {
		res := when.ResolveTime(text, anchor, ref, e.opts)
		return res.Time, res.Outcome == when.Resolved
	})
	if todFound {
		update.MeetingTime = &tod
	}

	if name, ok := resolveFirst(turns, identity.ResolveName); ok {
		update.RequesterName = &name
	}

	if title, ok := resolveTitle(turns); ok {
		update.Title = &title
	}

	return e.store.Merge(conversationID, update), nil
}

// AmbiguousTime reports whether the most recent user turn carries a time
// phrase that needs AM/PM clarification, so the caller can surface a
// clarification request instead of guessing.
func (e *Engine) AmbiguousTime(turns []convo.Turn) bool {
	ref := e.now().UTC()
	res := when.ResolveTime(convo.LatestUser(turns), schedule.DateOf(ref), ref, e.opts)
	return res.Outcome == when.Ambiguous
}

// resolveFirst walks user turns newest-first and returns the first
// value the resolver produces; when no single turn resolves, it retries
// against the whole transcript joined together as a looser parse.
func resolveFirst[T any](turns []convo.Turn, resolve func(string) (T, bool)) (T, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != convo.RoleUser {
			continue
		}
		if v, ok := resolve(turns[i].Content); ok {
			return v, true
		}
	}

	var joined strings.Builder
	for _, turn := range turns {
		if turn.Role != convo.RoleUser {
			continue
		}
		joined.WriteString(turn.Content)
		joined.WriteString(" ")
	}
	return resolve(joined.String())
}

// resolveTitle looks newest-first for an explicit title phrase, then
// for a short direct answer to an assistant turn that asked about the
// title. Confirmation and skip phrases never become titles; the context
// builder defaults those to "Meeting with {name}" downstream.
func resolveTitle(turns []convo.Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != convo.RoleUser {
			continue
		}
		if title, ok := explicitTitle(turns[i].Content); ok {
			return title, true
		}
		if i > 0 && turns[i-1].Role == convo.RoleAssistant && asksForTitle(turns[i-1].Content) {
			candidate := strings.TrimSpace(turns[i].Content)
			if candidate != "" && len(candidate) <= maxTitleLength && !isSkipPhrase(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

var titleMarkers = []string{"call it ", "title it ", "titled ", "the title is ", "name it "}

func explicitTitle(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, marker := range titleMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		title := strings.TrimSpace(text[idx+len(marker):])
		title = strings.Trim(title, `"'.`)
		if title != "" && len(title) <= maxTitleLength {
			return title, true
		}
	}
	return "", false
}

func asksForTitle(text string) bool {
	return strings.Contains(strings.ToLower(text), "title")
}

var skipPhrases = []string{
	"that's fine", "thats fine", "it's fine", "no thanks", "no thank you",
	"sounds good", "that's right",
}

var skipLeads = map[string]bool{
	"no": true, "nope": true, "nah": true, "skip": true, "nothing": true,
	"none": true, "yes": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "correct": true,
}

func isSkipPhrase(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.Trim(normalized, ".!,")
	for _, phrase := range skipPhrases {
		if normalized == phrase {
			return true
		}
	}
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return true
	}
	return skipLeads[strings.Trim(fields[0], ".!,")]
}
