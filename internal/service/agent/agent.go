// Package agent orchestrates one conversation turn end to end: slot
// extraction, fact building, booking gate evaluation, and reply
// selection. All failures resolve to a clarification or rejection
// message here; nothing past this boundary surfaces a raw fault.
package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"
	"github.com/tarabot/scheduler/backend/internal/model/convo"
	"github.com/tarabot/scheduler/backend/internal/service/ai"
	"github.com/tarabot/scheduler/backend/internal/service/booking"
	"github.com/tarabot/scheduler/backend/internal/service/extract"
	"github.com/tarabot/scheduler/backend/internal/service/facts"
)

// Result is the outcome of processing one inbound turn.
type Result struct {
	ConversationID string          `json:"conversationId"`
	Reply          string          `json:"reply"`
	State          booking.State   `json:"state"`
	Sheet          facts.Sheet     `json:"facts"`
	Booked         bool            `json:"booked"`
	// Deterministic is true when the reply was produced by the core
	// (booking outcomes, fallbacks) rather than the dialogue engine.
	Deterministic bool `json:"deterministic"`
}

// Agent wires the extraction engine, booking gate, and the optional
// dialogue-engine collaborator.
type Agent struct {
	engine *extract.Engine
	gate   *booking.Gate
	// dialogue may be nil; the agent then falls back to deterministic
	// clarification replies, mirroring how the server degrades when the
	// model is unconfigured.
	dialogue *ai.Service
}

// New assembles the agent.
func New(engine *extract.Engine, gate *booking.Gate, dialogue *ai.Service) *Agent {
	return &Agent{engine: engine, gate: gate, dialogue: dialogue}
}

// Respond processes the transcript and returns a complete reply.
// confirmationSignal is the transport's externally-classified "user
// wants to book now" input; the fallback phrase set backs it up.
func (a *Agent) Respond(ctx context.Context, conversationID string, turns []convo.Turn, confirmationSignal bool) (Result, error) {
	result, state, err := a.evaluate(ctx, conversationID, turns, confirmationSignal)
	if err != nil {
		return Result{}, err
	}
	if result.Deterministic {
		return result, nil
	}

	if a.dialogue == nil {
		result.Reply = fallbackReply(state)
		result.Deterministic = true
		return result, nil
	}

	reply, err := a.dialogue.GenerateReply(ctx, conversationID, turns, state)
	if err != nil {
		log.Printf("[agent] dialogue engine failed for conversation=%s: %v", conversationID, err)
		result.Reply = fallbackReply(state)
		result.Deterministic = true
		return result, nil
	}
	result.Reply = reply
	return result, nil
}

// Stream behaves like Respond but hands back a token stream for
// non-deterministic replies. A nil stream means Result.Reply is final.
func (a *Agent) Stream(ctx context.Context, conversationID string, turns []convo.Turn, confirmationSignal bool) (Result, *schema.StreamReader[*schema.Message], error) {
	result, state, err := a.evaluate(ctx, conversationID, turns, confirmationSignal)
	if err != nil {
		return Result{}, nil, err
	}
	if result.Deterministic {
		return result, nil, nil
	}

	if a.dialogue == nil || !a.dialogue.StreamingEnabled() {
		full, err := a.Respond(ctx, conversationID, turns, confirmationSignal)
		return full, nil, err
	}

	stream, err := a.dialogue.StreamReply(ctx, turns, state)
	if err != nil {
		log.Printf("[agent] dialogue stream failed for conversation=%s: %v", conversationID, err)
		result.Reply = fallbackReply(state)
		result.Deterministic = true
		return result, nil, nil
	}
	return result, stream, nil
}

// evaluate runs extraction and the gate, deciding whether the reply is
// deterministic. The booking gate only fires on an affirmative signal;
// its deterministic confirmation or rejection message replaces the
// model reply for that turn.
func (a *Agent) evaluate(ctx context.Context, conversationID string, turns []convo.Turn, confirmationSignal bool) (Result, ai.PromptState, error) {
	sess, err := a.engine.Extract(ctx, conversationID, turns)
	if err != nil {
		return Result{}, ai.PromptState{}, fmt.Errorf("extract: %w", err)
	}

	sheet := facts.Build(sess)
	confirmed := confirmationSignal || DetectConfirmation(convo.LatestUser(turns))

	outcome := a.gate.Attempt(ctx, conversationID, confirmed)

	result := Result{
		ConversationID: conversationID,
		State:          outcome.State,
		Sheet:          sheet,
		Booked:         outcome.State == booking.StateBooked || outcome.State == booking.StateAlreadyBooked,
	}

	switch outcome.State {
	case booking.StateBooked:
		result.Sheet.Booked = true
		result.Reply = bookedMessage(outcome)
		result.Deterministic = true
	case booking.StateAlreadyBooked:
		result.Reply = "You're all set — this meeting is already booked. Have a great day!"
		result.Deterministic = true
	case booking.StateRejected:
		result.Reply = rejectedMessage(outcome)
		result.Deterministic = true
	}

	state := ai.PromptState{
		Sheet:         sheet,
		ReadyToBook:   outcome.State == booking.StateReady,
		AmbiguousTime: sess.MeetingTime == nil && a.engine.AmbiguousTime(turns),
	}
	return result, state, nil
}

func bookedMessage(outcome booking.Outcome) string {
	req := outcome.Request
	return fmt.Sprintf("Done! I've created '%s' for %s on %s UTC. You're all set!",
		req.Title, req.Name, req.Start.Format("Monday, January 2, 2006 at 03:04 PM"))
}

func rejectedMessage(outcome booking.Outcome) string {
	if outcome.Reason == "time has passed" {
		return "It looks like that time has already passed. Could you pick a later time, or would you prefer a different date?"
	}
	return fmt.Sprintf("Sorry, there was an error creating your event: %s. Would you like to try again?", outcome.Reason)
}

func fallbackReply(state ai.PromptState) string {
	if state.AmbiguousTime {
		return "Just to be sure — did you mean AM or PM? I'll save the time in UTC."
	}
	if state.ReadyToBook {
		return "I have everything I need. Shall I go ahead and book it?"
	}
	for _, slot := range state.Sheet.Missing {
		switch slot {
		case facts.SlotName:
			return "Hi! I'm Tara, your scheduling assistant. May I have your full name?"
		case facts.SlotDate:
			return "What date works for you? Natural language like 'tomorrow' or 'next Monday' is fine."
		case facts.SlotTime:
			return "What time works for you? I'll save it in UTC, so please include AM or PM."
		case facts.SlotTitle:
			return "Would you like to give the meeting a title? It's optional."
		}
	}
	return "Is there anything you'd like to change about the booking?"
}
