package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stafflens/stafflens/pkg/provider/llm"
	llmmock "github.com/stafflens/stafflens/pkg/provider/llm/mock"
)

const validAnalysisJSON = `{
	"scores": {"communication_clarity": 8, "confidence": 7, "problem_solving": 7, "emotional_regulation": 8, "cultural_fit": 8},
	"fit_score": 76,
	"strengths": ["articulate"],
	"concerns": [],
	"red_flags": [],
	"evidence_quotes": {"positive": ["I enjoy collaborating"], "negative": []},
	"psychological_profile": "Calm and deliberate.",
	"culture_alignment": "Good fit.",
	"summary": "Recommend moving forward.",
	"recommendation": "HIRE",
	"recommendation_reasoning": "Strong answers throughout."
}`

const sampleTranscript = "[StaffLens]: What interests you?\n[Jordan]: I enjoy collaborating on open source."

// orNil converts a possibly-nil mock pointer into the provider interface
// without producing a non-nil interface around a nil pointer.
func orNil(p *llmmock.Provider) llm.Provider {
	if p == nil {
		return nil
	}
	return p
}

func newTestAnalyzer(preferred, fallback *llmmock.Provider) *Analyzer {
	a := NewAnalyzer(orNil(preferred), orNil(fallback), "local", "openrouter", 5*time.Second, nil, nil)
	a.retryBaseDelay = time.Millisecond
	return a
}

func TestAnalyzer_PreferredBackendSucceeds(t *testing.T) {
	t.Parallel()

	preferred := &llmmock.Provider{Responses: []string{validAnalysisJSON}}
	fallback := &llmmock.Provider{Responses: []string{validAnalysisJSON}}
	a := newTestAnalyzer(preferred, fallback)

	r, err := a.Analyze(context.Background(), sampleTranscript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.FitScore != 76 {
		t.Errorf("FitScore = %d, want 76", r.FitScore)
	}
	if !r.Recommended {
		t.Error("Recommended = false, want true")
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.CallCount())
	}

	req := preferred.CompleteCalls[0].Req
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", req.Temperature)
	}
	if !strings.Contains(req.Messages[0].Content, sampleTranscript) {
		t.Error("prompt missing transcript")
	}
}

func TestAnalyzer_FallsBackWhenPreferredFails(t *testing.T) {
	t.Parallel()

	preferred := &llmmock.Provider{Err: errors.New("local endpoint down")}
	fallback := &llmmock.Provider{Responses: []string{validAnalysisJSON}}
	a := newTestAnalyzer(preferred, fallback)

	r, err := a.Analyze(context.Background(), sampleTranscript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.FitScore != 76 {
		t.Errorf("FitScore = %d, want 76", r.FitScore)
	}
	if preferred.CallCount() == 0 {
		t.Error("preferred backend never tried")
	}
	if fallback.CallCount() == 0 {
		t.Error("fallback backend never tried")
	}
}

func TestAnalyzer_RetriesMalformedReply(t *testing.T) {
	t.Parallel()

	// First reply is prose without JSON; the retry gets clean output.
	preferred := &llmmock.Provider{Responses: []string{
		"I cannot produce JSON right now, sorry.",
		"```json\n" + validAnalysisJSON + "\n```",
	}}
	a := newTestAnalyzer(preferred, nil)

	r, err := a.Analyze(context.Background(), sampleTranscript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Recommendation != "HIRE" {
		t.Errorf("Recommendation = %q, want HIRE", r.Recommendation)
	}
	if got := preferred.CallCount(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestAnalyzer_AllBackendsFail(t *testing.T) {
	t.Parallel()

	preferred := &llmmock.Provider{Err: errors.New("local down")}
	fallback := &llmmock.Provider{Err: errors.New("remote down")}
	a := newTestAnalyzer(preferred, fallback)

	_, err := a.Analyze(context.Background(), sampleTranscript)
	if err == nil {
		t.Fatal("expected error when every backend fails")
	}
	if !strings.Contains(err.Error(), "all backends") {
		t.Errorf("err = %v, want all-backends failure", err)
	}
}

func TestAnalyzer_EmptyTranscript(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(&llmmock.Provider{}, nil)

	if _, err := a.Analyze(context.Background(), "   \n  "); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
}
