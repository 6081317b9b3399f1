package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	// PromptChanged is true when the interviewer prompt (inline text or file
	// path) changed. Applies to sessions started after the reload.
	PromptChanged bool

	// TimingsChanged is true when any interview timing knob changed.
	// Applies to sessions started after the reload.
	TimingsChanged bool

	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// Changed reports whether the diff contains any hot-reloadable change.
func (d ConfigDiff) Changed() bool {
	return d.PromptChanged || d.TimingsChanged || d.LogLevelChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	if old.Interview.Prompt != new.Interview.Prompt ||
		old.Interview.PromptFile != new.Interview.PromptFile {
		d.PromptChanged = true
	}

	o, n := old.Interview, new.Interview
	if o.PollInterval != n.PollInterval ||
		o.SilenceWindow != n.SilenceWindow ||
		o.ResponseTimeout != n.ResponseTimeout ||
		o.ShortResponseTimeout != n.ShortResponseTimeout ||
		o.FlushWait != n.FlushWait ||
		o.MinQuestions != n.MinQuestions ||
		o.DialogueTimeout != n.DialogueTimeout ||
		o.AnalysisTimeout != n.AnalysisTimeout {
		d.TimingsChanged = true
	}

	return d
}
