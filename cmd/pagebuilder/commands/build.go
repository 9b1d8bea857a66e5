package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/compile"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/observability"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input  string `short:"i" help:"Override markup.in (content root or single file)" type:"path"`
	Output string `short:"o" help:"Override markup.out" type:"path"`
	Strict bool   `help:"Exit non-zero when any page was dropped"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	settings := compile.SettingsFromConfig(cfg)
	if b.Input != "" {
		settings.Input = b.Input
	}
	if b.Output != "" {
		settings.Output = b.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, settings, b.Strict)
}

// RunBuild compiles settings once and prints a summary.
func RunBuild(ctx context.Context, g *Global, settings compile.Settings, strict bool) error {
	out := g.out()
	_, _ = fmt.Fprintln(out, "Starting pagebuilder build")

	compiler, err := compile.New(settings)
	if err != nil {
		return err
	}
	ctx = observability.WithStage(ctx, "build")
	observability.InfoContext(ctx, "Compiling", logfields.Path(settings.Input), logfields.Output(settings.Output))
	observability.DebugContext(ctx, "Compile settings",
		logfields.Count(len(settings.Collections)), logfields.Items(len(settings.DataFiles)))

	report, err := compiler.Run(ctx)
	if report == nil || report.Fatal != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Wrote %d files to %s in %s\n",
		len(report.Written), filepath.Clean(settings.Output), report.Duration().Round(time.Millisecond))
	for _, issue := range report.Dropped {
		_, _ = fmt.Fprintf(out, "  dropped %s: %v\n", issue.Source, issue.Err)
	}
	for _, issue := range report.WriteFailures {
		_, _ = fmt.Fprintf(out, "  failed %s: %v\n", issue.Output, issue.Err)
	}
	for _, issue := range report.Warnings {
		observability.WarnContext(ctx, "Page compiled with warnings",
			logfields.Path(issue.Source), logfields.Error(issue.Err))
	}
	if err != nil {
		return err
	}
	if strict && len(report.Dropped) > 0 {
		return ferrors.RenderError(fmt.Sprintf("%d pages could not be rendered", len(report.Dropped))).
			WithContext("pass_id", report.PassID).
			Build()
	}
	return nil
}
