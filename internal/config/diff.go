package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	// LogLevelChanged is true when server.log_level changed; NewLogLevel
	// holds the new value.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ProvidersChanged is true when the completion chain or embeddings
	// backend changed. Provider changes apply to new sessions only.
	ProvidersChanged bool

	// InterviewDefaultsChanged is true when any interview.* default changed.
	InterviewDefaultsChanged bool
}

// Changed reports whether the diff contains any tracked change.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.ProvidersChanged || d.InterviewDefaultsChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !providerEntryEqual(old.Providers.LLM, new.Providers.LLM) ||
		!providerEntryEqual(old.Providers.Embeddings, new.Providers.Embeddings) ||
		!fallbacksEqual(old.Providers.Fallbacks, new.Providers.Fallbacks) {
		d.ProvidersChanged = true
	}

	if old.Interview != new.Interview {
		d.InterviewDefaultsChanged = true
	}

	return d
}

// providerEntryEqual compares the scalar fields of two entries. Options maps
// are compared by length only; a changed option value with a stable set of
// keys is rare enough that a restart is acceptable.
func providerEntryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	return len(a.Options) == len(b.Options)
}

func fallbacksEqual(a, b []ProviderEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !providerEntryEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
