package interview

import (
	"strings"
	"testing"
)

func TestCleanForSpeech(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain text untouched",
			"What got you interested in joining this community?",
			"What got you interested in joining this community?",
		},
		{
			"strips http url",
			"Take a look at https://example.com/page for details.",
			"Take a look at for details.",
		},
		{
			"strips www url",
			"See www.example.org today.",
			"See today.",
		},
		{
			"strips bare domain",
			"Our site example.gg has more info.",
			"Our site has more info.",
		},
		{
			"strips check out phrase",
			"Great answer! Check out example-docs for more.",
			"Great answer! for more.",
		},
		{
			"strips visit phrase",
			"You should visit example-site sometime.",
			"You should sometime.",
		},
		{
			"strips asterisk actions",
			"*clears throat* So, tell me about yourself.",
			"So, tell me about yourself.",
		},
		{
			"strips underscore actions",
			"_nods thoughtfully_ Interesting point.",
			"Interesting point.",
		},
		{
			"strips completion marker",
			"Thanks for your time! " + CompleteMarker,
			"Thanks for your time!",
		},
		{
			"strips pause marker",
			"Let me think. [PAUSE] Okay, next topic.",
			"Let me think. Okay, next topic.",
		},
		{
			"strips system notes",
			"[SYSTEM: candidate seems nervous] How are you feeling?",
			"How are you feeling?",
		},
		{
			"strips bracketed meta",
			"[NOTE TO SELF: probe deeper] Tell me more.",
			"Tell me more.",
		},
		{
			"collapses whitespace",
			"Too   many    spaces\nand newlines.",
			"Too many spaces and newlines.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanForSpeech(tc.in); got != tc.want {
				t.Errorf("CleanForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanForSpeech_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"*laughs* Check out https://example.com and visit www.example.io [SYSTEM: hmm] now " + CompleteMarker,
		"Plain sentence with nothing to remove.",
		"_whispers_ secrets about example.dev [PAUSE]",
	}
	for _, in := range inputs {
		once := CleanForSpeech(in)
		twice := CleanForSpeech(once)
		if once != twice {
			t.Errorf("CleanForSpeech not idempotent:\n first: %q\nsecond: %q", once, twice)
		}
	}
}

func TestCleanForDisplay(t *testing.T) {
	t.Parallel()

	got := CleanForDisplay("Read https://example.com/docs then reply. " + CompleteMarker)
	if strings.Contains(got, "https://") {
		t.Errorf("display text still contains URL: %q", got)
	}
	if !strings.Contains(got, linkRemovedPlaceholder) {
		t.Errorf("display text missing placeholder: %q", got)
	}
	if strings.Contains(got, CompleteMarker) {
		t.Errorf("display text still contains completion marker: %q", got)
	}
}

func TestCleanForDisplay_KeepsRoleplayActions(t *testing.T) {
	t.Parallel()

	in := "*smiles* Good to hear."
	if got := CleanForDisplay(in); got != in {
		t.Errorf("CleanForDisplay(%q) = %q, want unchanged", in, got)
	}
}
