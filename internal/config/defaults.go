package config

import "runtime"

// Default values applied when the configuration leaves a field empty.
const (
	DefaultOut            = "."
	DefaultMetricsAddress = ":9102"
	DefaultMetricsPath    = "/metrics"
	DefaultDebounce       = "300ms"
	DefaultMaxDelay       = "2s"
)

// DefaultConcurrency bounds concurrent render jobs when unset.
var DefaultConcurrency = runtime.GOMAXPROCS(0)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// MarkupDefaultApplier handles markup defaults.
type MarkupDefaultApplier struct{}

func (m *MarkupDefaultApplier) Domain() string { return "markup" }

func (m *MarkupDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Markup.Out == "" {
		cfg.Markup.Out = DefaultOut
	}
	if cfg.Markup.Site == nil {
		cfg.Markup.Site = map[string]any{}
	}
	if cfg.Markup.Options.Concurrency <= 0 {
		cfg.Markup.Options.Concurrency = max(DefaultConcurrency, 1)
	}
	if cfg.Markup.Options.Autoescape == nil {
		enabled := true
		cfg.Markup.Options.Autoescape = &enabled
	}
	return nil
}

// LoggingDefaultApplier handles logging defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// MetricsDefaultApplier handles metrics endpoint defaults.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	return nil
}

// WatchDefaultApplier handles watch defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.MaxDelay == "" {
		cfg.Watch.MaxDelay = DefaultMaxDelay
	}
	return nil
}
