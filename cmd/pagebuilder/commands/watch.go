package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/pagebuilder/internal/compile"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/observability"
	"git.home.luguber.info/inful/pagebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Metrics bool `help:"Serve Prometheus metrics even when metrics.enabled is false"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Metrics {
		cfg.Metrics.Enabled = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, g, cfg)
}

// RunWatch compiles cfg and recompiles on change until ctx is done.
func RunWatch(ctx context.Context, g *Global, cfg *config.Config) error {
	ctx = observability.WithStage(ctx, "watch")
	var opts []compile.Option
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, compile.WithRecorder(metrics.NewPrometheusRecorder(reg)))

		srv, err := startMetricsServer(cfg.Metrics, reg)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				observability.WarnContext(ctx, "Metrics server shutdown error", logfields.Error(err))
			}
		}()
	}

	settings := compile.SettingsFromConfig(cfg)
	compiler, err := compile.New(settings, opts...)
	if err != nil {
		return err
	}

	roots := []string{settings.Input}
	for _, p := range settings.IncludePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(settings.Input, p)
		}
		roots = append(roots, p)
	}
	for _, r := range roots {
		observability.DebugContext(ctx, "Watch root", logfields.Path(r))
	}
	watcher, err := watch.New(compiler, watch.Options{
		Roots:           roots,
		Output:          settings.Output,
		DataFiles:       settings.DataFiles,
		Debounce:        cfg.Watch.DebounceDuration(),
		MaxDelay:        cfg.Watch.MaxDelayDuration(),
		RebuildInterval: cfg.Watch.RebuildEvery(),
		Logger:          slog.Default(),
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.out(), "Watching %s (Ctrl+C to stop)\n", settings.Input)
	return watcher.Run(ctx)
}

func startMetricsServer(mc config.MetricsConfig, reg *prom.Registry) (*http.Server, error) {
	ln, err := net.Listen("tcp", mc.Address)
	if err != nil {
		return nil, fmt.Errorf("metrics server: %w", err)
	}

	srv := &http.Server{Handler: metrics.NewMux(mc.Path, reg), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", logfields.Error(err))
		}
	}()
	slog.Info("Metrics endpoint listening", slog.String("address", ln.Addr().String()), slog.String("path", mc.Path))
	return srv, nil
}
