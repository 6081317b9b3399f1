// Package analysis turns a finished interview transcript into a structured
// hiring assessment.
//
// Two chat-completion backends are involved: a preferred analysis backend
// (typically a local model, cheap and private) and the dialogue backend as a
// fallback. Each backend attempt is retried on transient failures, including
// replies that fail to parse as JSON; a backend that keeps failing hands over
// to the next one.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/internal/resilience"
	"github.com/stafflens/stafflens/pkg/provider/llm"
)

// ErrEmptyTranscript is returned when there is nothing to analyse.
var ErrEmptyTranscript = errors.New("analysis: empty transcript")

// analysisTemperature is kept low for consistent scoring across runs.
const analysisTemperature = 0.3

// backend pairs a provider with a label for logs and metrics.
type backend struct {
	name     string
	provider llm.Provider
}

// Analyzer produces assessments from transcripts.
type Analyzer struct {
	backends []backend
	timeout  time.Duration
	metrics  *observe.Metrics
	log      *slog.Logger

	// retryBaseDelay overrides the retry backoff base; zero keeps the default.
	retryBaseDelay time.Duration
}

// NewAnalyzer creates an Analyzer that tries preferred first and falls back
// to fallback. Either provider may be nil; at least one must be set. timeout
// bounds each complete backend attempt chain. metrics may be nil.
func NewAnalyzer(preferred, fallback llm.Provider, preferredName, fallbackName string, timeout time.Duration, metrics *observe.Metrics, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	a := &Analyzer{timeout: timeout, metrics: metrics, log: log}
	if preferred != nil {
		a.backends = append(a.backends, backend{name: preferredName, provider: preferred})
	}
	if fallback != nil {
		a.backends = append(a.backends, backend{name: fallbackName, provider: fallback})
	}
	return a
}

// Analyze assesses the transcript and returns the normalised result. The
// preferred backend is tried first with retries; on persistent failure the
// fallback backend is tried the same way. Returns an error only when every
// backend fails or the transcript is empty.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}
	if len(a.backends) == 0 {
		return nil, errors.New("analysis: no backends configured")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(analysisPromptTemplate, transcript)

	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	var lastErr error
	for _, b := range a.backends {
		result, err := a.analyzeWith(ctx, b, prompt)
		if err == nil {
			a.log.Info("analysis complete",
				"backend", b.name,
				"fit_score", result.FitScore,
				"recommendation", result.Recommendation)
			return result, nil
		}
		lastErr = err
		a.log.Warn("analysis backend failed", "backend", b.name, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("analysis failed on all backends: %w", lastErr)
}

// analyzeWith runs one backend with retries. A reply that cannot be parsed
// into the expected JSON shape counts as a retryable failure, since models
// occasionally emit malformed output on one attempt and clean output on the
// next.
func (a *Analyzer) analyzeWith(ctx context.Context, b backend, prompt string) (*Result, error) {
	cfg := resilience.RetryConfig{Name: "analysis/" + b.name, BaseDelay: a.retryBaseDelay}
	return resilience.RetryWithResult(ctx, cfg, func() (*Result, error) {
		resp, err := b.provider.Complete(ctx, llm.CompletionRequest{
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			Temperature: analysisTemperature,
		})
		if err != nil {
			return nil, err
		}
		obj, err := extractJSON(resp.Content)
		if err != nil {
			return nil, err
		}
		result, err := normalize([]byte(obj))
		if err != nil {
			return nil, fmt.Errorf("parse analysis JSON: %w", err)
		}
		return result, nil
	})
}
