// Command stafflens runs the StaffLens interview bot: it connects to
// Discord, conducts voice interviews with applicants, and posts analysis
// reports for staff review.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/internal/config"
	discordbot "github.com/stafflens/stafflens/internal/discord"
	"github.com/stafflens/stafflens/internal/discord/commands"
	"github.com/stafflens/stafflens/internal/health"
	"github.com/stafflens/stafflens/internal/observe"
	"github.com/stafflens/stafflens/internal/resilience"
	"github.com/stafflens/stafflens/pkg/provider/llm"
	"github.com/stafflens/stafflens/pkg/provider/llm/anyllm"
	"github.com/stafflens/stafflens/pkg/provider/llm/openrouter"
	"github.com/stafflens/stafflens/pkg/provider/stt"
	"github.com/stafflens/stafflens/pkg/provider/stt/deepgram"
	"github.com/stafflens/stafflens/pkg/provider/stt/whisper"
	"github.com/stafflens/stafflens/pkg/provider/tts"
	"github.com/stafflens/stafflens/pkg/provider/tts/coqui"
	"github.com/stafflens/stafflens/pkg/provider/tts/elevenlabs"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "stafflens: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "stafflens: %v\n", err)
		}
		return 1
	}

	logger, logLevel := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("stafflens starting",
		"version", version,
		"config", *configPath,
		"guild_id", cfg.Discord.GuildID,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "stafflens",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(cfg.Discord, logger.With("component", "discord"))
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}
	providers.Voice = bot.Platform()
	slog.Info("discord bot connected", "guild_id", cfg.Discord.GuildID)

	printStartupSummary(cfg)

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(ctx, cfg, providers,
		app.WithPoster(bot.Poster()),
		app.WithDisplay(bot.Display()),
		app.WithMetrics(metrics),
		app.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		bot.Close()
		return 1
	}

	// The bot drops voice events until the session manager is bound, so the
	// pipeline is complete before the first applicant can trigger anything.
	bot.Bind(application.Sessions())
	commands.NewInterviewCommands(bot, application.Sessions(), application.Store(), application.Analyzer())

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(prev, next *config.Config) {
		d := config.Diff(prev, next)
		if !d.Changed() {
			return
		}
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.PromptChanged || d.TimingsChanged {
			application.ApplyConfig(next)
			slog.Info("interview settings reloaded",
				"prompt_changed", d.PromptChanged,
				"timings_changed", d.TimingsChanged,
			)
		}
	})
	if err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("stafflens ready, press Ctrl+C to shut down")

	// ── Serve ─────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(gctx)
	})

	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		checkers := []health.Checker{{
			Name: "discord",
			Check: func(context.Context) error {
				if bot.Session().State.User == nil {
					return errors.New("gateway session not ready")
				}
				return nil
			},
		}}
		if pinger, ok := application.Store().(interface {
			Ping(context.Context) error
		}); ok {
			checkers = append(checkers, health.Checker{Name: "database", Check: pinger.Ping})
		}
		health.New(checkers...).Register(mux)
		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           observe.Middleware(metrics)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		}
		slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)

		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// End active interviews first so in-flight reports go out before the
	// gateway connection closes.
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	if err := bot.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	reg.RegisterLLM("openrouter", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openrouter.Option
		if entry.BaseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(entry.BaseURL))
		}
		if sort := optString(entry.Options, "provider_sort"); sort != "" {
			opts = append(opts, openrouter.WithProviderSort(sort))
		}
		return openrouter.New(entry.APIKey, entry.Model, opts...)
	})

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})

	// The remaining local/openai-compatible backends share the same pattern:
	// optional APIKey + optional BaseURL.
	for _, providerName := range []string{"openai", "llamacpp", "llamafile"} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, entry.VoiceID, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		if speaker := optString(entry.Options, "speaker"); speaker != "" {
			opts = append(opts, coqui.WithSpeaker(speaker))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	// The voice platform is not registry-built: it comes from the Discord
	// gateway connection, so main wires it from the bot directly.
}

// buildProviders instantiates all providers named in cfg using the registry.
// Entries carrying a fallback are wrapped in a circuit-breaker failover group
// so a flaky primary degrades to the fallback instead of killing interviews.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	llmEntry := cfg.Providers.LLM
	dialogue, err := reg.CreateLLM(llmEntry)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", llmEntry.Name, err)
	}
	if llmEntry.Fallback != nil {
		fb, err := reg.CreateLLM(*llmEntry.Fallback)
		if err != nil {
			return nil, fmt.Errorf("create llm fallback %q: %w", llmEntry.Fallback.Name, err)
		}
		group := resilience.NewLLMFallback(dialogue, llmEntry.Name, resilience.FallbackConfig{})
		group.AddFallback(llmEntry.Fallback.Name, fb)
		ps.LLM = group
		slog.Info("provider created", "kind", "llm", "name", llmEntry.Name, "fallback", llmEntry.Fallback.Name)
	} else {
		ps.LLM = dialogue
		slog.Info("provider created", "kind", "llm", "name", llmEntry.Name)
	}

	// The analysis backends stay unwrapped: the analyzer itself drives the
	// preferred-then-fallback order so it can report which backend produced
	// the assessment.
	if entry := cfg.Providers.Analysis; entry.Name != "" {
		p, err := reg.CreateLLM(entry)
		if err != nil {
			return nil, fmt.Errorf("create analysis provider %q: %w", entry.Name, err)
		}
		ps.Analysis = p
		ps.AnalysisName = entry.Name
		slog.Info("provider created", "kind", "analysis", "name", entry.Name)

		if entry.Fallback != nil {
			fb, err := reg.CreateLLM(*entry.Fallback)
			if err != nil {
				return nil, fmt.Errorf("create analysis fallback %q: %w", entry.Fallback.Name, err)
			}
			ps.AnalysisFallback = fb
			ps.AnalysisFallbackName = entry.Fallback.Name
			slog.Info("provider created", "kind", "analysis-fallback", "name", entry.Fallback.Name)
		}
	}

	sttEntry := cfg.Providers.STT
	transcriber, err := reg.CreateSTT(sttEntry)
	if err != nil {
		return nil, fmt.Errorf("create stt provider %q: %w", sttEntry.Name, err)
	}
	if sttEntry.Fallback != nil {
		fb, err := reg.CreateSTT(*sttEntry.Fallback)
		if err != nil {
			return nil, fmt.Errorf("create stt fallback %q: %w", sttEntry.Fallback.Name, err)
		}
		group := resilience.NewSTTFallback(transcriber, sttEntry.Name, resilience.FallbackConfig{})
		group.AddFallback(sttEntry.Fallback.Name, fb)
		ps.STT = group
		slog.Info("provider created", "kind", "stt", "name", sttEntry.Name, "fallback", sttEntry.Fallback.Name)
	} else {
		ps.STT = transcriber
		slog.Info("provider created", "kind", "stt", "name", sttEntry.Name)
	}

	ttsEntry := cfg.Providers.TTS
	synth, err := reg.CreateTTS(ttsEntry)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", ttsEntry.Name, err)
	}
	if ttsEntry.Fallback != nil {
		fb, err := reg.CreateTTS(*ttsEntry.Fallback)
		if err != nil {
			return nil, fmt.Errorf("create tts fallback %q: %w", ttsEntry.Fallback.Name, err)
		}
		group := resilience.NewTTSFallback(synth, ttsEntry.Name, resilience.FallbackConfig{})
		group.AddFallback(ttsEntry.Fallback.Name, fb)
		ps.TTS = group
		slog.Info("provider created", "kind", "tts", "name", ttsEntry.Name, "fallback", ttsEntry.Fallback.Name)
	} else {
		ps.TTS = synth
		slog.Info("provider created", "kind", "tts", "name", ttsEntry.Name)
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       StaffLens startup summary       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("Analysis", cfg.Providers.Analysis.Name, cfg.Providers.Analysis.Model)
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	fmt.Printf("║  Guild        : %-22s ║\n", truncate(cfg.Discord.GuildID, 22))
	if cfg.Metrics.ListenAddr != "" {
		fmt.Printf("║  Metrics      : %-22s ║\n", truncate(cfg.Metrics.ListenAddr, 22))
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(dialogue llm)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s : %-22s ║\n", kind, truncate(value, 22))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}

// ── Logger ────────────────────────────────────────────────────────────────────

// newLogger builds the root logger with a mutable level so the config watcher
// can adjust verbosity at runtime.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
