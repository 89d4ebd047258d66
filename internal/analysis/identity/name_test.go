package identity_test

import (
	"testing"

	"github.com/tarabot/scheduler/backend/internal/analysis/identity"
)

func TestResolveNameIntroductions(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hi, I'm John Smith", "John Smith"},
		{"my name is alice", "Alice"},
		{"My name's Maria Garcia Lopez", "Maria Garcia Lopez"},
		{"this is Omar", "Omar"},
		{"you can call me Bob", "Bob"},
		{"hello! i am Priya and I'd like a meeting", "Priya"},
	}

	for _, tc := range tests {
		got, ok := identity.ResolveName(tc.text)
		if !ok {
			t.Fatalf("ResolveName(%q) unresolved, want %q", tc.text, tc.want)
		}
		if got != tc.want {
			t.Fatalf("ResolveName(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestResolveNameRejectsFiller(t *testing.T) {
	for _, text := range []string{
		"I'm looking for a meeting slot",
		"I'm not sure yet",
		"I am available tomorrow",
		"this is great, thanks",
		"I'm free on Monday",
		"hello there",
		"",
	} {
		if got, ok := identity.ResolveName(text); ok {
			t.Fatalf("ResolveName(%q) = %q, want unresolved", text, got)
		}
	}
}

func TestResolveNameStopsAtFiller(t *testing.T) {
	got, ok := identity.ResolveName("I'm Dana and I need to book something")
	if !ok || got != "Dana" {
		t.Fatalf("ResolveName = %q/%v, want Dana", got, ok)
	}
}
