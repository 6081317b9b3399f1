// Package app wires the interview subsystems into a running application.
//
// New builds the analysis pipeline, the report finalizer, the dialogue
// orchestrator, and the session manager from a config and a set of providers.
// The Discord surface (gateway handlers and slash commands) lives in
// internal/discord and drives the [SessionManager] exposed here.
//
// For testing, inject doubles via functional options (WithStore, WithPoster,
// WithDisplay). When an option is not provided, New creates the real
// implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stafflens/stafflens/internal/analysis"
	"github.com/stafflens/stafflens/internal/config"
	"github.com/stafflens/stafflens/internal/interview"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/internal/report"
	"github.com/stafflens/stafflens/pkg/provider/llm"
	"github.com/stafflens/stafflens/pkg/provider/stt"
	"github.com/stafflens/stafflens/pkg/provider/tts"
	"github.com/stafflens/stafflens/pkg/store"
	"github.com/stafflens/stafflens/pkg/store/postgres"
	"github.com/stafflens/stafflens/pkg/voice"
)

// Providers holds one interface value per provider slot. Populated by main.go
// via the config registry. LLM, STT, TTS, and Voice are required; Analysis
// defaults to the dialogue LLM when nil.
type Providers struct {
	// LLM drives the live interview dialogue.
	LLM llm.Provider

	// Analysis is the preferred post-interview assessment backend.
	Analysis llm.Provider

	// AnalysisFallback is tried when Analysis fails. May be nil.
	AnalysisFallback llm.Provider

	// AnalysisName and AnalysisFallbackName label the backends in logs and
	// retry metrics.
	AnalysisName         string
	AnalysisFallbackName string

	STT   stt.Provider
	TTS   tts.Provider
	Voice voice.Platform
}

// App owns the interview pipeline lifetimes: analysis, finalizer,
// orchestrator, session manager, and (when created from config) the store.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *observe.Metrics

	store     store.Store
	ownsStore bool
	poster    report.Poster
	display   interview.DisplayFunc

	analyzer  *analysis.Analyzer
	finalizer *report.Finalizer
	orch      *interview.Orchestrator
	sessions  *SessionManager

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an interview store instead of connecting to Postgres.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithPoster sets the report delivery channel.
func WithPoster(p report.Poster) Option {
	return func(a *App) { a.poster = p }
}

// WithDisplay sets the text mirror for spoken interviewer lines.
func WithDisplay(fn interview.DisplayFunc) Option {
	return func(a *App) { a.display = fn }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New wires the interview pipeline together. All initialisation is
// synchronous; when no store is injected the Postgres pool is connected and
// the schema applied before New returns.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if providers == nil {
		return nil, errors.New("app: providers are required")
	}

	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.poster == nil {
		return nil, errors.New("app: report poster is required")
	}

	var missing []string
	if providers.LLM == nil {
		missing = append(missing, "llm")
	}
	if providers.STT == nil {
		missing = append(missing, "stt")
	}
	if providers.TTS == nil {
		missing = append(missing, "tts")
	}
	if providers.Voice == nil {
		missing = append(missing, "voice")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("app: missing required providers: %v", missing)
	}

	cfg.Interview.ApplyDefaults()

	if a.store == nil {
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("app: storage.postgres_dsn is required")
		}
		pg, err := postgres.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("app: connect store: %w", err)
		}
		a.store = pg
		a.ownsStore = true
	}

	preferred := providers.Analysis
	preferredName := providers.AnalysisName
	if preferred == nil {
		preferred = providers.LLM
		preferredName = "dialogue-llm"
	}
	a.analyzer = analysis.NewAnalyzer(
		preferred, providers.AnalysisFallback,
		preferredName, providers.AnalysisFallbackName,
		cfg.Interview.AnalysisTimeout,
		a.metrics,
		a.log.With("component", "analysis"),
	)

	a.finalizer = report.NewFinalizer(a.store, a.analyzer, a.poster, a.metrics,
		a.log.With("component", "report"))

	listener := interview.NewListener(providers.STT, cfg.Interview, a.metrics,
		a.log.With("component", "listener"))

	orchOpts := []interview.Option{
		interview.WithLogger(a.log.With("component", "interview")),
		interview.WithFinalizer(a.finalizer.Finalize),
	}
	if a.metrics != nil {
		orchOpts = append(orchOpts, interview.WithMetrics(a.metrics))
	}
	if a.display != nil {
		orchOpts = append(orchOpts, interview.WithDisplay(a.display))
	}
	a.orch = interview.NewOrchestrator(providers.LLM, providers.TTS, listener,
		cfg.Interview, orchOpts...)

	a.sessions = NewSessionManager(SessionManagerConfig{
		Platform: providers.Voice,
		Runner:   a.orch,
		Finalize: a.finalizer.Finalize,
		Metrics:  a.metrics,
		Logger:   a.log.With("component", "sessions"),
	})

	return a, nil
}

// Sessions returns the session manager driving the interview lifecycles.
func (a *App) Sessions() *SessionManager {
	return a.sessions
}

// Store returns the interview record store, for the review commands.
func (a *App) Store() store.Store {
	return a.store
}

// Analyzer returns the post-interview analysis pipeline, for the reanalyze
// command.
func (a *App) Analyzer() *analysis.Analyzer {
	return a.analyzer
}

// ApplyConfig applies the hot-reloadable parts of a freshly loaded config.
// Only the interview tuning is applied; provider, Discord, and storage
// changes need a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	ic := cfg.Interview
	ic.ApplyDefaults()
	a.orch.UpdateConfig(ic)
}

// Shutdown ends all active interviews and releases owned resources. Safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		err = a.sessions.Shutdown(ctx)
		if a.ownsStore {
			if pg, ok := a.store.(*postgres.Store); ok {
				pg.Close()
			}
		}
	})
	return err
}
