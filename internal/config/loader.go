package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":      {"openrouter", "openai", "ollama", "llamacpp", "llamafile"},
	"analysis": {"openrouter", "openai", "ollama", "llamacpp", "llamafile"},
	"stt":      {"deepgram", "whisper"},
	"tts":      {"elevenlabs", "coqui"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. ${ENV_VAR} references in the file are expanded before parsing so
// secrets can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg, err := LoadFromReader(strings.NewReader(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.Interview.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Discord
	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required"))
	}
	if cfg.Discord.GuildID == "" {
		errs = append(errs, errors.New("discord.guild_id is required"))
	}
	if cfg.Discord.ApplicantRoleID == "" {
		errs = append(errs, errors.New("discord.applicant_role_id is required"))
	}
	if cfg.Discord.ReportChannelID == "" {
		errs = append(errs, errors.New("discord.report_channel_id is required"))
	}
	if cfg.Discord.StaffRoleID == "" {
		slog.Warn("discord.staff_role_id is empty; /interview commands will require administrator permission")
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderEntry("llm", &cfg.Providers.LLM)
	validateProviderEntry("analysis", &cfg.Providers.Analysis)
	validateProviderEntry("stt", &cfg.Providers.STT)
	validateProviderEntry("tts", &cfg.Providers.TTS)

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required; the bot cannot conduct interviews without a dialogue model"))
	}
	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	if cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("providers.tts.name is required"))
	}
	if cfg.Providers.TTS.Name == "elevenlabs" && cfg.Providers.TTS.VoiceID == "" {
		errs = append(errs, errors.New("providers.tts.voice_id is required for elevenlabs"))
	}
	if cfg.Providers.Analysis.Name == "" {
		slog.Warn("providers.analysis is not configured; the dialogue model will be used for post-interview analysis")
	}

	// Interview
	if cfg.Interview.Prompt != "" && cfg.Interview.PromptFile != "" {
		slog.Warn("both interview.prompt and interview.prompt_file are set; prompt_file wins")
	}
	if cfg.Interview.SilenceWindow >= cfg.Interview.ResponseTimeout {
		errs = append(errs, fmt.Errorf("interview.silence_window (%s) must be shorter than interview.response_timeout (%s)",
			cfg.Interview.SilenceWindow, cfg.Interview.ResponseTimeout))
	}
	if cfg.Interview.SilenceWindow >= cfg.Interview.ShortResponseTimeout {
		errs = append(errs, fmt.Errorf("interview.silence_window (%s) must be shorter than interview.short_response_timeout (%s)",
			cfg.Interview.SilenceWindow, cfg.Interview.ShortResponseTimeout))
	}

	// Storage
	if cfg.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required; transcripts must be persisted"))
	}

	return errors.Join(errs...)
}

// validateProviderEntry logs a warning if the entry (or its fallback) names a
// provider not found in the [ValidProviderNames] list for the given kind.
func validateProviderEntry(kind string, entry *ProviderEntry) {
	validateProviderName(kind, entry.Name)
	if entry.Fallback != nil {
		validateProviderName(kind, entry.Fallback.Name)
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
