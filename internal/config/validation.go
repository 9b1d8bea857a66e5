package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// MinRebuildInterval is the shortest accepted periodic rebuild interval.
const MinRebuildInterval = time.Second

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateMarkup(); err != nil {
		return err
	}
	if err := cv.validateCollections(); err != nil {
		return err
	}
	if err := cv.validateMetrics(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateMarkup() error {
	m := cv.config.Markup
	if m.In == "" {
		return invalid("markup.in is required")
	}
	if filepath.Clean(m.In) == filepath.Clean(m.Out) {
		return invalid(fmt.Sprintf("markup.out must differ from markup.in (%s)", m.In))
	}
	for _, d := range m.Data {
		if strings.TrimSpace(d) == "" {
			return invalid("markup.data entries must not be empty")
		}
	}
	return nil
}

func (cv *configurationValidator) validateCollections() error {
	seen := make(map[string]bool)
	for i, c := range cv.config.Markup.Collections {
		field := fmt.Sprintf("markup.collections[%d]", i)
		switch {
		case c.Name == "" || c.Name == ".":
			return invalid(field + ".name is required")
		case filepath.IsAbs(c.Name) || c.Name == ".." || strings.HasPrefix(c.Name, "../"):
			return invalid(fmt.Sprintf("%s.name %q must stay inside markup.in", field, c.Name))
		case seen[c.Name]:
			return invalid(fmt.Sprintf("%s.name %q is declared twice", field, c.Name))
		}
		seen[c.Name] = true
	}
	return nil
}

func (cv *configurationValidator) validateMetrics() error {
	if cv.config.Metrics.Enabled && cv.config.Metrics.Address == "" {
		return invalid("metrics.address is required when metrics are enabled")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w.Debounce != "" {
		d, err := time.ParseDuration(w.Debounce)
		if err != nil || d < 0 {
			return invalid(fmt.Sprintf("watch.debounce %q is not a valid duration", w.Debounce))
		}
	}
	if w.MaxDelay != "" {
		d, err := time.ParseDuration(w.MaxDelay)
		if err != nil || d <= 0 {
			return invalid(fmt.Sprintf("watch.max_delay %q is not a valid duration", w.MaxDelay))
		}
		if d < w.DebounceDuration() {
			return invalid("watch.max_delay must not be shorter than watch.debounce")
		}
	}
	if w.RebuildInterval != "" {
		d, err := time.ParseDuration(w.RebuildInterval)
		if err != nil {
			return invalid(fmt.Sprintf("watch.rebuild_interval %q is not a valid duration", w.RebuildInterval))
		}
		if d < MinRebuildInterval {
			return invalid(fmt.Sprintf("watch.rebuild_interval must be at least %s", MinRebuildInterval))
		}
	}
	return nil
}

// DebounceDuration returns the parsed debounce interval.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// MaxDelayDuration returns the upper bound on a debounced rebuild's delay.
func (w WatchConfig) MaxDelayDuration() time.Duration {
	d, err := time.ParseDuration(w.MaxDelay)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultMaxDelay)
	}
	return d
}

// RebuildEvery returns the periodic rebuild interval, or zero when disabled.
func (w WatchConfig) RebuildEvery() time.Duration {
	if w.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

func invalid(msg string) error {
	return ferrors.ValidationError(msg).Build()
}
