package compile

import (
	"log/slog"
	"maps"

	"git.home.luguber.info/inful/pagebuilder/internal/collections"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
)

// Settings describes what a Compiler compiles.
type Settings struct {
	// Input is the content root, or a single file to compile.
	Input string
	// Output is the output root.
	Output string
	// ProjectRoot anchors relative data files and item file paths.
	ProjectRoot  string
	IncludePaths []string
	Collections  []collections.Spec
	// Globals are injected into every render, e.g. `site`.
	Globals     map[string]any
	DataFiles   []string
	Autoescape  bool
	Concurrency int
	StrictCache bool
}

// SettingsFromConfig derives Settings from a loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	specs := make([]collections.Spec, 0, len(cfg.Markup.Collections))
	for _, c := range cfg.Markup.Collections {
		spec := collections.Spec{Name: c.Name, Paginate: c.Paginate}
		if c.Sort != nil {
			spec.Sort = c.Sort.AsMap()
		}
		specs = append(specs, spec)
	}

	globals := map[string]any{}
	if len(cfg.Markup.Site) > 0 {
		globals["site"] = maps.Clone(cfg.Markup.Site)
	}

	return Settings{
		Input:        cfg.InputDir(),
		Output:       cfg.OutputDir(),
		ProjectRoot:  cfg.BaseDir,
		IncludePaths: append([]string(nil), cfg.Markup.IncludePaths...),
		Collections:  specs,
		Globals:      globals,
		DataFiles:    cfg.DataFiles(),
		Autoescape:   cfg.Markup.Options.AutoescapeEnabled(),
		Concurrency:  cfg.Markup.Options.Concurrency,
		StrictCache:  cfg.Markup.Options.StrictCache,
	}
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) {
		if r != nil {
			c.recorder = r
		}
	}
}
