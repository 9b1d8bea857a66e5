// Package watch recompiles a project when its sources change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagebuilder/internal/compile"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/pathmap"
)

const (
	// DefaultDebounce is the quiet window between the last change and a rebuild.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMaxDelay caps how long continuous changes can postpone a rebuild.
	DefaultMaxDelay = 2 * time.Second
)

// Runner runs compile passes.
type Runner interface {
	Run(ctx context.Context) (*compile.Report, error)
	ReloadData() error
}

// Options configures a Watcher.
type Options struct {
	// Roots are watched recursively: the content root and include paths.
	Roots []string
	// Output is ignored so that writes from a pass do not retrigger it.
	Output string
	// DataFiles trigger a data reload before the next pass.
	DataFiles []string
	Debounce  time.Duration
	// MaxDelay bounds the time from the first pending change to its rebuild.
	MaxDelay time.Duration
	// RebuildInterval schedules a full pass with a data reload. Zero disables it.
	RebuildInterval time.Duration
	Logger          *slog.Logger
}

// Watcher serializes compile passes triggered by file changes. Triggers
// arriving while a pass runs queue exactly one follow-up pass.
type Watcher struct {
	runner Runner
	opts   Options
	logger *slog.Logger

	requests chan struct{}

	timerMu      sync.Mutex
	timer        *time.Timer
	pendingSince time.Time

	mu         sync.Mutex
	reloadData bool

	dataFiles map[string]bool
	passes    int
}

// New creates a Watcher for runner.
func New(runner Runner, opts Options) (*Watcher, error) {
	if runner == nil {
		return nil, ferrors.ValidationError("runner is required").Build()
	}
	if len(opts.Roots) == 0 {
		return nil, ferrors.ValidationError("at least one watch root is required").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.MaxDelay < opts.Debounce {
		opts.MaxDelay = opts.Debounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		runner:    runner,
		opts:      opts,
		logger:    logger,
		requests:  make(chan struct{}, 1),
		dataFiles: make(map[string]bool, len(opts.DataFiles)),
	}
	if opts.Output != "" {
		w.opts.Output = absPath(opts.Output)
	}
	for _, f := range opts.DataFiles {
		w.dataFiles[absPath(f)] = true
	}
	return w, nil
}

// Run performs an initial pass, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range w.opts.Roots {
		w.addDirsRecursive(fsw, root)
	}
	for dir := range w.dataDirs() {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Cannot watch data directory", logfields.Path(dir), logfields.Error(err))
		}
	}

	if w.opts.RebuildInterval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery("rebuild", w.opts.RebuildInterval, func() {
			w.Trigger("schedule", true)
		}); err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx)
	}()

	w.request()
	w.logger.Info("Watching for changes", slog.Any("roots", w.opts.Roots))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			<-done
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Trigger schedules a pass after the debounce window. Each trigger restarts
// the window, but a pass is never postponed beyond MaxDelay from the first
// pending trigger. With reload set, data files are re-read first.
func (w *Watcher) Trigger(reason string, reload bool) {
	w.logger.Debug("Rebuild requested", slog.String("reason", reason))
	if reload {
		w.mu.Lock()
		w.reloadData = true
		w.mu.Unlock()
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	now := time.Now()
	if w.pendingSince.IsZero() {
		w.pendingSince = now
	}
	delay := w.opts.Debounce
	if remaining := w.opts.MaxDelay - now.Sub(w.pendingSince); remaining < delay {
		delay = max(remaining, 0)
	}
	w.timer = time.AfterFunc(delay, w.fire)
}

func (w *Watcher) fire() {
	w.timerMu.Lock()
	w.pendingSince = time.Time{}
	w.timerMu.Unlock()
	w.request()
}

// Passes returns the number of passes run so far.
func (w *Watcher) Passes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passes
}

func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// worker runs one pass per request. Requests arriving during a pass collapse
// into the single buffered slot, so a burst yields one follow-up pass.
func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			w.mu.Lock()
			reload := w.reloadData
			w.reloadData = false
			w.mu.Unlock()

			w.pass(ctx, reload)

			w.mu.Lock()
			w.passes++
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) pass(ctx context.Context, reload bool) {
	if reload {
		if err := w.runner.ReloadData(); err != nil {
			w.logger.Warn("Data reload failed", logfields.Error(err))
		}
	}
	report, err := w.runner.Run(ctx)
	switch {
	case err != nil:
		w.logger.Warn("Rebuild failed", logfields.Error(err))
	case report != nil && report.Failed():
		w.logger.Warn("Rebuild finished with dropped jobs", logfields.Count(len(report.Dropped)))
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := absPath(ev.Name)
	if w.opts.Output != "" && pathmap.Within(path, w.opts.Output) {
		return
	}
	isData := w.dataFiles[path]
	if !isData && ShouldIgnore(path) {
		return
	}
	if !isData && !w.underRoot(path) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			w.addDirsRecursive(fsw, path)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(path), slog.String("op", ev.Op.String()))
	w.Trigger("change", isData)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.opts.Roots {
		if pathmap.Within(path, absPath(root)) {
			return true
		}
	}
	return false
}

func (w *Watcher) dataDirs() map[string]bool {
	dirs := make(map[string]bool)
	for f := range w.dataFiles {
		dir := filepath.Dir(f)
		if !w.underRoot(dir) {
			dirs[dir] = true
		}
	}
	return dirs
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	if fi, err := os.Stat(root); err == nil && !fi.IsDir() {
		if err := fsw.Add(filepath.Dir(root)); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(root), logfields.Error(err))
		}
		return
	}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if w.opts.Output != "" && pathmap.Within(absPath(path), w.opts.Output) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ShouldIgnore reports whether a change to path never triggers a rebuild:
// hidden files, editor swap and backup files, and OS metadata files.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
