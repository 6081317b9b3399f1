package analysis

import "testing"

func TestNormalize_FullPayload(t *testing.T) {
	t.Parallel()

	raw := `{
		"scores": {"communication_clarity": 8, "confidence": 7, "problem_solving": 6, "emotional_regulation": 8, "cultural_fit": 9},
		"fit_score": 78,
		"strengths": ["clear communicator", "owns mistakes"],
		"concerns": ["limited availability"],
		"red_flags": [],
		"evidence_quotes": {"positive": ["I owned up to it"], "negative": []},
		"psychological_profile": "Thoughtful and steady.",
		"culture_alignment": "Strong collaborative instincts.",
		"summary": "Solid candidate.",
		"recommendation": "HIRE",
		"recommendation_reasoning": "Consistent, self-aware answers."
	}`

	r, err := normalize([]byte(raw))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.FitScore != 78 {
		t.Errorf("FitScore = %d, want 78", r.FitScore)
	}
	if !r.Recommended {
		t.Error("Recommended = false, want true for HIRE")
	}
	if r.Scores["cultural_fit"] != 9 {
		t.Errorf("cultural_fit = %d, want 9", r.Scores["cultural_fit"])
	}
	if len(r.Strengths) != 2 || len(r.Concerns) != 1 || len(r.RedFlags) != 0 {
		t.Errorf("lists = %d/%d/%d, want 2/1/0", len(r.Strengths), len(r.Concerns), len(r.RedFlags))
	}
	if len(r.Raw) == 0 {
		t.Error("Raw payload not retained")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	r, err := normalize([]byte(`{}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.Recommendation != "LEAN_NO" {
		t.Errorf("Recommendation = %q, want LEAN_NO", r.Recommendation)
	}
	if r.Recommended {
		t.Error("Recommended = true, want false")
	}
	if r.Summary != "No summary available." {
		t.Errorf("Summary = %q", r.Summary)
	}
	if r.Strengths == nil || r.Concerns == nil || r.RedFlags == nil {
		t.Error("lists should be empty, not nil")
	}
	if r.EvidenceQuotes.Positive == nil || r.EvidenceQuotes.Negative == nil {
		t.Error("evidence lists should be empty, not nil")
	}
	if r.FitScore != 0 {
		t.Errorf("FitScore = %d, want 0 with no scores", r.FitScore)
	}
}

func TestNormalize_RecommendationTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tier string
		want bool
	}{
		{"STRONG_HIRE", true},
		{"HIRE", true},
		{"LEAN_HIRE", true},
		{"LEAN_NO", false},
		{"NO_HIRE", false},
		{"STRONG_NO", false},
		{"SOMETHING_ELSE", false},
	}
	for _, tc := range cases {
		r, err := normalize([]byte(`{"recommendation": "` + tc.tier + `"}`))
		if err != nil {
			t.Fatalf("normalize(%s): %v", tc.tier, err)
		}
		if r.Recommended != tc.want {
			t.Errorf("tier %s: Recommended = %v, want %v", tc.tier, r.Recommended, tc.want)
		}
	}
}

func TestNormalize_FitScoreCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"numeric string", `{"fit_score": "82"}`, 82},
		{"float", `{"fit_score": 66.7}`, 66},
		{"junk string falls back to midpoint", `{"fit_score": "very good"}`, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := normalize([]byte(tc.raw))
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if r.FitScore != tc.want {
				t.Errorf("FitScore = %d, want %d", r.FitScore, tc.want)
			}
		})
	}
}

func TestNormalize_FitScoreDerivedFromScores(t *testing.T) {
	t.Parallel()

	raw := `{"scores": {"communication_clarity": 7, "confidence": 8}}`
	r, err := normalize([]byte(raw))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	// Average 7.5 scaled to the 1-100 range.
	if r.FitScore != 75 {
		t.Errorf("FitScore = %d, want 75", r.FitScore)
	}
}

func TestNormalize_ListCoercion(t *testing.T) {
	t.Parallel()

	raw := `{"strengths": "just one strength", "concerns": null}`
	r, err := normalize([]byte(raw))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(r.Strengths) != 1 || r.Strengths[0] != "just one strength" {
		t.Errorf("Strengths = %v, want single-entry list", r.Strengths)
	}
	if len(r.Concerns) != 0 {
		t.Errorf("Concerns = %v, want empty", r.Concerns)
	}
}

func TestNormalize_ScoreCoercion(t *testing.T) {
	t.Parallel()

	raw := `{"scores": {"confidence": "8", "cultural_fit": 6.9}}`
	r, err := normalize([]byte(raw))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.Scores["confidence"] != 8 {
		t.Errorf("confidence = %d, want 8", r.Scores["confidence"])
	}
	if r.Scores["cultural_fit"] != 6 {
		t.Errorf("cultural_fit = %d, want 6", r.Scores["cultural_fit"])
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "Here you go:\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Sure! {"a": {"b": 2}} Hope that helps.`, `{"a": {"b": 2}}`},
		{"braces inside strings", `{"quote": "use { and } freely"}`, `{"quote": "use { and } freely"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractJSON(tc.in)
			if err != nil {
				t.Fatalf("extractJSON: %v", err)
			}
			if got != tc.want {
				t.Errorf("extractJSON = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	t.Parallel()

	if _, err := extractJSON("no json here at all"); err == nil {
		t.Error("expected error for response without JSON")
	}
	if _, err := extractJSON(`{"unterminated": true`); err == nil {
		t.Error("expected error for unbalanced braces")
	}
}
