// Package commands implements the pagebuilder command-line interface.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/observability"
)

// Global holds state shared by subcommands.
type Global struct {
	// Stdout receives user-facing summaries.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"pagebuilder.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json). Overrides logging.format."`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Compile the content tree once"`
	Watch WatchCmd `cmd:"" help:"Compile, then recompile whenever sources change"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; it installs the process logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setupLogging(nil)
	return nil
}

// setupLogging configures slog from the flags, falling back to the
// configuration's logging section. The -v flag always wins.
func (c *CLI) setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	format := string(config.LogFormatText)
	if cfg != nil {
		level = cfg.Logging.Level.SlogLevel()
		if cfg.Logging.Format != "" {
			format = string(cfg.Logging.Format)
		}
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	if c.LogFormat != "" {
		format = string(config.NormalizeLogFormat(c.LogFormat))
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, format))
}

// loadConfig reads the configuration file and reapplies logging settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.setupLogging(cfg)
	return cfg, nil
}
