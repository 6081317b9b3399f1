package report

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/analysis"
)

func fieldByName(t *testing.T, embed *discordgo.MessageEmbed, name string) *discordgo.MessageEmbedField {
	t.Helper()
	for _, f := range embed.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func TestReportEmbed_TierDisplay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		recommendation string
		wantLabel      string
		wantColor      int
	}{
		{"STRONG_HIRE", "STRONG HIRE", colorGreen},
		{"HIRE", "HIRE", colorGreen},
		{"LEAN_HIRE", "LEAN HIRE", colorGold},
		{"LEAN_NO", "LEAN NO", colorOrange},
		{"NO_HIRE", "NO HIRE", colorRed},
		{"STRONG_NO", "STRONG NO", colorDarkRed},
		{"GARBAGE_TIER", "NEEDS REVIEW", colorGrey},
		{"", "NEEDS REVIEW", colorGrey},
	}
	for _, tc := range cases {
		t.Run(tc.recommendation, func(t *testing.T) {
			t.Parallel()

			r := &analysis.Result{FitScore: 50, Recommendation: tc.recommendation}
			embed := ReportEmbed("Jordan", "u1", r, "", 70)

			if !strings.Contains(embed.Description, tc.wantLabel) {
				t.Errorf("description %q missing %q", embed.Description, tc.wantLabel)
			}
			if embed.Color != tc.wantColor {
				t.Errorf("color = %#x, want %#x", embed.Color, tc.wantColor)
			}
		})
	}
}

func TestReportEmbed_Layout(t *testing.T) {
	t.Parallel()

	r := &analysis.Result{
		Scores:               map[string]int{"confidence": 8, "cultural_fit": 9},
		FitScore:             85,
		Strengths:            []string{"honest", "direct", "curious", "calm", "fast", "sixth one dropped"},
		Concerns:             []string{"short answers"},
		RedFlags:             []string{"dodged the conflict question"},
		PsychologicalProfile: "Measured and self-aware.",
		CultureAlignment:     "Collaborates readily.",
		EvidenceQuotes: analysis.Evidence{
			Positive: []string{"first", "second", "third quote dropped"},
			Negative: []string{"I guess"},
		},
		Summary:                 "Strong showing.",
		Recommendation:          "HIRE",
		RecommendationReasoning: "Clear and consistent.",
	}
	embed := ReportEmbed("Jordan", "u42", r, "", 70)

	if embed.Title != "📋 Interview Report: Jordan" {
		t.Errorf("title = %q", embed.Title)
	}
	if embed.Author == nil || !strings.Contains(embed.Author.Name, "u42") {
		t.Error("author missing applicant ID")
	}
	if embed.Footer == nil || !strings.Contains(embed.Footer.Text, "Threshold: 70") {
		t.Error("footer missing threshold")
	}

	fit := fieldByName(t, embed, "🎯 Fit Score")
	if fit == nil {
		t.Fatal("fit score field missing")
	}
	if !strings.Contains(fit.Value, "**85**/100") {
		t.Errorf("fit score value = %q", fit.Value)
	}

	traits := fieldByName(t, embed, "📊 Trait Scores")
	if traits == nil {
		t.Fatal("trait scores field missing")
	}
	// Map keys sorted for stable output: confidence before cultural_fit.
	if !strings.Contains(traits.Value, "💪 **Confidence:** 8/10") {
		t.Errorf("traits value = %q", traits.Value)
	}
	if strings.Index(traits.Value, "Confidence") > strings.Index(traits.Value, "Cultural Fit") {
		t.Error("trait lines not sorted by key")
	}

	strengths := fieldByName(t, embed, "💪 Key Strengths")
	if strengths == nil {
		t.Fatal("strengths field missing")
	}
	if strings.Count(strengths.Value, "• ") != 5 {
		t.Errorf("strengths capped at 5, got %q", strengths.Value)
	}
	if strings.Contains(strengths.Value, "sixth one dropped") {
		t.Error("strengths not truncated to 5 entries")
	}

	quotes := fieldByName(t, embed, "💬 Positive Quotes")
	if quotes == nil {
		t.Fatal("positive quotes field missing")
	}
	if strings.Contains(quotes.Value, "third quote dropped") {
		t.Error("quotes not truncated to 2 entries")
	}
	if !strings.Contains(quotes.Value, `> "first"`) {
		t.Errorf("quotes value = %q", quotes.Value)
	}

	summary := fieldByName(t, embed, "📝 Summary")
	if summary == nil {
		t.Fatal("summary field missing")
	}
	if !strings.Contains(summary.Value, "Strong showing.") || !strings.Contains(summary.Value, "**Reasoning:** Clear and consistent.") {
		t.Errorf("summary value = %q", summary.Value)
	}
}

func TestReportEmbed_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	r := &analysis.Result{FitScore: 40, Recommendation: "LEAN_NO", Summary: "Thin interview."}
	embed := ReportEmbed("Jordan", "u1", r, "", 70)

	for _, name := range []string{"📊 Trait Scores", "💪 Key Strengths", "⚠️ Concerns", "🚩 Red Flags", "💬 Positive Quotes", "💬 Concerning Quotes", "📜 Transcript Preview"} {
		if fieldByName(t, embed, name) != nil {
			t.Errorf("field %q present with no data", name)
		}
	}
}

func TestReportEmbed_TranscriptPreviewTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", transcriptPreviewLimit+100)
	r := &analysis.Result{FitScore: 50, Recommendation: "HIRE"}
	embed := ReportEmbed("Jordan", "u1", r, long, 70)

	preview := fieldByName(t, embed, "📜 Transcript Preview")
	if preview == nil {
		t.Fatal("transcript preview field missing")
	}
	if !strings.HasSuffix(preview.Value, "...```") {
		t.Errorf("preview not marked truncated: %q", preview.Value[len(preview.Value)-10:])
	}
	if strings.Count(preview.Value, "a") != transcriptPreviewLimit {
		t.Errorf("preview length = %d, want %d", strings.Count(preview.Value, "a"), transcriptPreviewLimit)
	}
}

func TestScoreBar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		score  int
		fill   string
		filled int
	}{
		{"high scores green", 85, "🟩", 17},
		{"mid scores yellow", 60, "🟨", 12},
		{"low-mid scores orange", 45, "🟧", 9},
		{"low scores red", 20, "🟥", 4},
		{"zero all empty", 0, "", 0},
		{"clamped above total", 150, "🟩", 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bar := scoreBar(tc.score, 100, 20)
			if tc.filled > 0 && strings.Count(bar, tc.fill) != tc.filled {
				t.Errorf("bar %q: %s count = %d, want %d", bar, tc.fill, strings.Count(bar, tc.fill), tc.filled)
			}
			if got := strings.Count(bar, "⬜"); got != 20-tc.filled {
				t.Errorf("bar %q: empty count = %d, want %d", bar, got, 20-tc.filled)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"communication_clarity": "Communication Clarity",
		"confidence":            "Confidence",
		"cultural_fit":          "Cultural Fit",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStartEmbed(t *testing.T) {
	t.Parallel()

	embed := StartEmbed("Jordan", "u1", "interview-room")
	if embed.Color != colorBlue {
		t.Errorf("color = %#x, want %#x", embed.Color, colorBlue)
	}
	if !strings.Contains(embed.Description, "Jordan") {
		t.Errorf("description = %q", embed.Description)
	}
	if fieldByName(t, embed, "Channel") == nil || fieldByName(t, embed, "Applicant ID") == nil {
		t.Error("channel or applicant field missing")
	}
}
