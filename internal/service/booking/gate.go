// Package booking decides when a conversation has enough confirmed
// information to book, and guarantees the calendar collaborator is
// invoked at most once per conversation.
package booking

import (
	"context"
	"log"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/model/schedule"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
	"github.com/tarabot/scheduler/backend/internal/service/session"
)

// State is the gate's position for one conversation.
type State string

const (
	// StateIncomplete means required slots are still missing.
	StateIncomplete State = "incomplete"
	// StateReady means all required slots are resolved and the gate is
	// waiting for an explicit user confirmation.
	StateReady State = "ready_to_confirm"
	// StateBooked is terminal: the collaborator call succeeded.
	StateBooked State = "booked"
	// StateAlreadyBooked is the idempotent answer to any attempt after
	// StateBooked.
	StateAlreadyBooked State = "already_booked"
	// StateRejected means this attempt failed but the conversation can
	// recover; resolved slots stay intact.
	StateRejected State = "rejected"
)

// Outcome reports one booking attempt.
type Outcome struct {
	State   State             `json:"state"`
	Reason  string            `json:"reason,omitempty"`
	Missing []string          `json:"missing,omitempty"`
	Request *schedule.Request `json:"request,omitempty"`
}

// Booker is the external calendar collaborator boundary.
type Booker interface {
	Book(ctx context.Context, req schedule.Request) error
}

// DefaultTimeout bounds the collaborator call so a hung calendar
// service surfaces as a rejection instead of an indeterminate session.
const DefaultTimeout = 10 * time.Second

// Gate enforces confirmation-before-booking and at-most-once booking.
type Gate struct {
	store   *session.Store
	booker  Booker
	timeout time.Duration
	now     func() time.Time
}

// NewGate builds a gate over the shared session store. A non-positive
// timeout falls back to DefaultTimeout.
func NewGate(store *session.Store, booker Booker, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{store: store, booker: booker, timeout: timeout, now: time.Now}
}

// Attempt evaluates the session for conversationID and, when it is
// complete, confirmed, not yet booked, and still in the future, invokes
// the collaborator exactly once. The whole read-check-book-mark
// sequence runs under the conversation's lock, so two concurrent
// attempts produce one collaborator call and one Booked outcome; the
// loser observes AlreadyBooked.
func (g *Gate) Attempt(ctx context.Context, conversationID string, confirmed bool) Outcome {
	var outcome Outcome

	_ = g.store.WithSession(conversationID, func(sess *convo.Session) error {
		if sess.BookingCompleted {
			outcome = Outcome{State: StateAlreadyBooked}
			return nil
		}

		sheet := facts.Build(*sess)
		if !sheet.Ready() {
			outcome = Outcome{State: StateIncomplete, Missing: sheet.Missing}
			return nil
		}

		if !confirmed {
			outcome = Outcome{State: StateReady}
			return nil
		}

		start := sess.Start()
		// Wall-clock time advanced since resolution; validate again.
		if !start.After(g.now().UTC()) {
			outcome = Outcome{State: StateRejected, Reason: "time has passed"}
			return nil
		}

		title := sess.Title
		if title == "" {
			title = facts.DefaultTitle(sess.RequesterName)
		}
		req := schedule.Request{
			Name:     sess.RequesterName,
			Start:    start,
			Title:    title,
			Duration: schedule.DefaultDuration,
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		if err := g.booker.Book(callCtx, req); err != nil {
			reason := err.Error()
			if callCtx.Err() != nil {
				reason = "booking service timed out"
			}
			log.Printf("[booking] collaborator failed for conversation=%s: %v", conversationID, err)
			outcome = Outcome{State: StateRejected, Reason: reason}
			return nil
		}

		sess.BookingCompleted = true
		sess.LastUpdated = g.now().UTC()
		outcome = Outcome{State: StateBooked, Request: &req}
		log.Printf("[booking] booked conversation=%s start=%s", conversationID, start.Format(time.RFC3339))
		return nil
	})

	return outcome
}
