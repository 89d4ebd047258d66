package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/tarabot/scheduler/backend/internal/service/facts"
)

var slotQuestions = map[string]string{
	facts.SlotName:  "their full name",
	facts.SlotDate:  "the date they want (natural language is fine)",
	facts.SlotTime:  "the time they prefer, clarifying AM or PM",
	facts.SlotTitle: "an optional meeting title",
}

// BuildSystemPrompt renders Tara's standing instructions plus the
// current UTC date/time and the fact sheet. The date and time are
// injected fresh on every turn; the model is never allowed to invent or
// recompute a resolved value.
func BuildSystemPrompt(now time.Time, state PromptState) string {
	var b strings.Builder

	b.WriteString("You are Tara, a friendly and professional scheduling assistant.\n")
	fmt.Fprintf(&b, "Today's date is %s and the current time is %s UTC.\n\n",
		now.Format("Monday, January 2, 2006"), now.Format("03:04 PM"))

	b.WriteString("The scheduling system has already resolved the following details. ")
	b.WriteString("Use these values EXACTLY as written; never recalculate dates or times yourself.\n")
	if len(state.Sheet.Known) == 0 {
		b.WriteString("- (nothing resolved yet)\n")
	}
	for _, fact := range state.Sheet.Known {
		fmt.Fprintf(&b, "- %s: %s\n", fact.Slot, fact.Value)
	}

	if len(state.Sheet.Missing) > 0 {
		b.WriteString("\nStill missing:\n")
		for _, slot := range state.Sheet.Missing {
			question := slotQuestions[slot]
			if question == "" {
				question = slot
			}
			fmt.Fprintf(&b, "- %s: ask for %s\n", slot, question)
		}
	}

	if state.Sheet.TitleFallback != "" {
		fmt.Fprintf(&b, "\nIf the user skips the title, it will default to %q.\n", state.Sheet.TitleFallback)
	}

	if state.AmbiguousTime {
		b.WriteString("\nThe user's last time mention had no AM or PM. Ask them which they meant; do not guess.\n")
	}

	if state.ReadyToBook {
		b.WriteString("\nEvery required detail is resolved. Read ALL details back clearly, including that the time is UTC, and ask the user to confirm with a yes before anything is booked.\n")
	}

	b.WriteString(`
Rules:
- Greet the user warmly on the first turn and collect one missing detail at a time.
- All times are saved in UTC; remind the user of this when asking for a time.
- If the user mentions a date or time that has already passed, ask them for one from now onwards.
- Never say a booking is confirmed; the scheduling system sends its own confirmation message after the booking succeeds.
- If the user goes off topic, acknowledge briefly and warmly, then steer back to scheduling.
- You are only a scheduling assistant; politely decline anything unrelated to booking a meeting.`)

	return b.String()
}
