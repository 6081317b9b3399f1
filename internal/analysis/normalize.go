package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Evidence holds quotes from the applicant supporting the assessment.
type Evidence struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// Result is the normalised interview assessment. Every field is populated:
// missing pieces get defaults so downstream consumers (report embed, store)
// never deal with absent keys.
type Result struct {
	// Scores are the per-dimension ratings on a 1-10 scale.
	Scores map[string]int `json:"scores"`

	// FitScore is the overall 1-100 score.
	FitScore int `json:"fit_score"`

	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
	RedFlags  []string `json:"red_flags"`

	EvidenceQuotes Evidence `json:"evidence_quotes"`

	PsychologicalProfile string `json:"psychological_profile"`
	CultureAlignment     string `json:"culture_alignment"`
	Summary              string `json:"summary"`

	// Recommendation is one of the six hire tiers.
	Recommendation          string `json:"recommendation"`
	RecommendationReasoning string `json:"recommendation_reasoning"`

	// Recommended collapses the tier into a boolean: the three hire-leaning
	// tiers map to true.
	Recommended bool `json:"recommended"`

	// Raw is the JSON object as returned by the model, kept for auditing.
	Raw json.RawMessage `json:"-"`
}

// hireTiers maps recommendation tiers to the boolean verdict.
var hireTiers = map[string]bool{
	"STRONG_HIRE": true,
	"HIRE":        true,
	"LEAN_HIRE":   true,
	"LEAN_NO":     false,
	"NO_HIRE":     false,
	"STRONG_NO":   false,
}

// flexInt decodes a JSON number or a numeric string into an int. Junk decodes
// to zero rather than failing, since model output is best-effort.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexInt(int(v))
	} else {
		*f = 0
	}
	return nil
}

// flexStrings decodes a JSON array of strings, tolerating a bare string or
// null in its place.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil && single != "" {
		*f = []string{single}
		return nil
	}
	*f = nil
	return nil
}

// payload mirrors the JSON shape requested from the model, with lenient
// decoding for the fields models most often get wrong.
type payload struct {
	Scores                  map[string]flexInt `json:"scores"`
	FitScore                json.RawMessage    `json:"fit_score"`
	Strengths               flexStrings        `json:"strengths"`
	Concerns                flexStrings        `json:"concerns"`
	RedFlags                flexStrings        `json:"red_flags"`
	EvidenceQuotes          Evidence           `json:"evidence_quotes"`
	PsychologicalProfile    string             `json:"psychological_profile"`
	CultureAlignment        string             `json:"culture_alignment"`
	Summary                 string             `json:"summary"`
	Recommendation          string             `json:"recommendation"`
	RecommendationReasoning string             `json:"recommendation_reasoning"`
}

// normalize parses the extracted JSON object and fills in every default: the
// recommendation tier falls back to LEAN_NO, an unparsable fit score becomes
// 50, a missing one is derived from the average dimension score scaled to
// 1-100, and all lists are non-nil.
func normalize(raw []byte) (*Result, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	r := &Result{
		Scores:                  map[string]int{},
		Strengths:               p.Strengths,
		Concerns:                p.Concerns,
		RedFlags:                p.RedFlags,
		EvidenceQuotes:          p.EvidenceQuotes,
		PsychologicalProfile:    p.PsychologicalProfile,
		CultureAlignment:        p.CultureAlignment,
		Summary:                 p.Summary,
		Recommendation:          p.Recommendation,
		RecommendationReasoning: p.RecommendationReasoning,
		Raw:                     append(json.RawMessage(nil), raw...),
	}
	for k, v := range p.Scores {
		r.Scores[k] = int(v)
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Concerns == nil {
		r.Concerns = []string{}
	}
	if r.RedFlags == nil {
		r.RedFlags = []string{}
	}
	if r.EvidenceQuotes.Positive == nil {
		r.EvidenceQuotes.Positive = []string{}
	}
	if r.EvidenceQuotes.Negative == nil {
		r.EvidenceQuotes.Negative = []string{}
	}
	if r.Summary == "" {
		r.Summary = "No summary available."
	}
	if r.Recommendation == "" {
		r.Recommendation = "LEAN_NO"
	}
	r.Recommended = hireTiers[r.Recommendation]

	r.FitScore = parseFitScore(p.FitScore)
	if r.FitScore == 0 && len(r.Scores) > 0 {
		sum := 0
		for _, v := range r.Scores {
			sum += v
		}
		r.FitScore = int(float64(sum) / float64(len(r.Scores)) * 10)
	}

	return r, nil
}

// parseFitScore handles the fit score arriving as a number, a numeric string,
// or junk. A present-but-unparsable value falls back to the midpoint 50; an
// absent one stays 0 so the caller derives it from the dimension scores.
func parseFitScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 50
	}
	return int(v)
}
