// Package config loads, normalizes and validates the pagebuilder project file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// DefaultFileName is looked up when no configuration path is given.
const DefaultFileName = "pagebuilder.yaml"

// Config is the pagebuilder project configuration.
type Config struct {
	Version string        `yaml:"version"`
	Markup  MarkupConfig  `yaml:"markup"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`

	// BaseDir is the directory relative paths resolve against. Set by Load.
	BaseDir string `yaml:"-"`
}

// MarkupConfig describes the content tree and how it is compiled.
type MarkupConfig struct {
	In           string             `yaml:"in"`
	Out          string             `yaml:"out"`
	IncludePaths []string           `yaml:"include_paths,omitempty"`
	Site         map[string]any     `yaml:"site,omitempty"`
	Data         []string           `yaml:"data,omitempty"`
	Collections  []CollectionConfig `yaml:"collections,omitempty"`
	Options      OptionsConfig      `yaml:"options,omitempty"`
}

// OptionsConfig tunes the compiler.
type OptionsConfig struct {
	// Autoescape selects contextual HTML escaping. Defaults to true.
	Autoescape *bool `yaml:"autoescape,omitempty"`
	// Concurrency bounds concurrent render jobs.
	Concurrency int `yaml:"concurrency,omitempty"`
	// StrictCache validates cached front matter by content fingerprint.
	StrictCache bool `yaml:"strict_cache,omitempty"`
}

// AutoescapeEnabled reports the effective autoescape setting.
func (o OptionsConfig) AutoescapeEnabled() bool {
	return o.Autoescape == nil || *o.Autoescape
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Debounce is the quiet period after a file event before rebuilding.
	Debounce string `yaml:"debounce,omitempty"`
	// MaxDelay bounds how long a steady stream of events can postpone a rebuild.
	MaxDelay string `yaml:"max_delay,omitempty"`
	// RebuildInterval triggers a periodic full rebuild when set.
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	baseDir := filepath.Dir(configPath)
	if err := loadEnvFiles(baseDir); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithCause(err).
			Build()
	}

	// #nosec G304 -- the configuration path is supplied by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = baseDir
	}
	cfg.BaseDir = abs
	return cfg, nil
}

// Parse decodes configuration bytes and runs normalization, defaults and validation.
// Environment variables are expanded before decoding.
func Parse(data []byte) (*Config, error) {
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if config.Version != "" && !strings.HasPrefix(config.Version, "1.") {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected 1.x)", config.Version)).Build()
	}

	if nres, nerr := NormalizeConfig(&config); nerr != nil {
		return nil, ferrors.WrapError(nerr, ferrors.CategoryConfig, "normalize").Build()
	} else if nres != nil {
		for _, w := range nres.Warnings {
			slog.Warn("Config normalization", "detail", w)
		}
	}
	if err := applyDefaults(&config); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to apply defaults").Build()
	}
	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	if config.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			config.BaseDir = wd
		}
	}
	return &config, nil
}

// Resolve returns p relative to the configuration's base directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// InputDir returns the absolute content root.
func (c *Config) InputDir() string { return c.Resolve(c.Markup.In) }

// OutputDir returns the absolute output root.
func (c *Config) OutputDir() string { return c.Resolve(c.Markup.Out) }

// DataFiles returns the absolute data file paths.
func (c *Config) DataFiles() []string {
	out := make([]string, 0, len(c.Markup.Data))
	for _, d := range c.Markup.Data {
		out = append(out, c.Resolve(d))
	}
	return out
}

func applyDefaults(config *Config) error {
	return NewDefaultApplier().ApplyDefaults(config)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	autoescape := true
	exampleConfig := Config{
		Version: CurrentVersion,
		Markup: MarkupConfig{
			In:           "src/markup",
			Out:          "dist",
			IncludePaths: []string{"_layouts", "_partials"},
			Site:         map[string]any{"title": "My Site"},
			Data:         []string{"data/links.json"},
			Collections: []CollectionConfig{
				{Name: "posts"},
				{Name: "projects", Sort: &SortConfig{By: "title"}, Paginate: 5},
			},
			Options: OptionsConfig{Autoescape: &autoescape, Concurrency: 8},
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics: MetricsConfig{Enabled: false, Address: DefaultMetricsAddress, Path: DefaultMetricsPath},
		Watch:   WatchConfig{Debounce: DefaultDebounce, MaxDelay: DefaultMaxDelay},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config directory").Build()
		}
	}
	// #nosec G306 -- configuration is not secret.
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
