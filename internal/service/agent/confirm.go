package agent

import "strings"

// affirmatives is the small fixed phrase set used only as a fallback
// safety net when the transport supplies no confirmation signal of its
// own. The core otherwise treats confirmation classification as an
// opaque external input.
var affirmatives = []string{
	"yes", "yep", "yeah", "yup", "correct", "confirm", "confirmed",
	"sounds good", "sounds right", "that's right", "thats right",
	"that works", "go ahead", "book it", "please do", "do it",
	"perfect", "exactly",
}

// DetectConfirmation reports whether the text reads as an affirmative
// answer to a read-back of the booking details.
func DetectConfirmation(text string) bool {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!,"))
	if normalized == "" {
		return false
	}
	for _, phrase := range affirmatives {
		if normalized == phrase || strings.HasPrefix(normalized, phrase+" ") || strings.HasPrefix(normalized, phrase+",") {
			return true
		}
	}
	return false
}
