package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagebuilder/internal/collections"
	"git.home.luguber.info/inful/pagebuilder/internal/data"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/observability"
	"git.home.luguber.info/inful/pagebuilder/internal/pagination"
	"git.home.luguber.info/inful/pagebuilder/internal/pathmap"
	"git.home.luguber.info/inful/pagebuilder/internal/templates"
)

// Render context keys.
const (
	KeyPage               = "page"
	KeyCollections        = "collections"
	KeyRelativePathPrefix = "relativePathPrefix"
	KeyURL                = "url"
)

// Compiler runs compile passes. Passes are serialized: a Run issued while
// another is in progress waits for it to finish.
type Compiler struct {
	settings Settings
	logger   *slog.Logger
	recorder metrics.Recorder
	store    *frontmatter.Store
	md       *markdown.Converter

	passMu sync.Mutex

	dataMu sync.RWMutex
	data   map[string]any
}

type job struct {
	kind       JobKind
	source     string
	output     string
	collection *collections.Collection
	page       pagination.Page
}

// New creates a Compiler and loads its data files. Data files that fail to
// load are logged and left out of the globals.
func New(settings Settings, opts ...Option) (*Compiler, error) {
	if settings.Input == "" {
		return nil, ferrors.ConfigError("input directory is required").Build()
	}
	if settings.Output == "" {
		return nil, ferrors.ConfigError("output directory is required").Build()
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = runtime.GOMAXPROCS(0)
	}

	c := &Compiler{
		settings: settings,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		md:       markdown.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = frontmatter.NewStore(
		frontmatter.WithStrictValidation(settings.StrictCache),
		frontmatter.WithLookupHook(c.recorder.IncCacheLookup),
	)

	if err := c.ReloadData(); err != nil {
		c.logger.Warn("Some data files could not be loaded", logfields.Error(err))
	}
	return c, nil
}

// Store returns the front-matter cache shared by every pass.
func (c *Compiler) Store() *frontmatter.Store {
	return c.store
}

// ReloadData re-reads the configured data files and the project's
// package.json. Files that fail keep their previous value.
func (c *Compiler) ReloadData() error {
	base := c.settings.ProjectRoot
	if base == "" {
		base = c.settings.Input
	}

	loaded, err := data.Load(base, c.settings.DataFiles)

	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	next := make(map[string]any, len(loaded)+1)
	for _, f := range c.settings.DataFiles {
		name := data.GlobalName(f)
		if v, ok := loaded[name]; ok {
			next[name] = v
		} else if prev, ok := c.data[name]; ok {
			next[name] = prev
		}
	}
	if pkg, ok := data.LoadPackage(base); ok {
		next[data.PackageGlobal] = pkg
	}
	c.data = next
	return err
}

// Globals returns the variables injected into every render: configured
// globals overlaid with data file contents.
func (c *Compiler) Globals() map[string]any {
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()
	globals := maps.Clone(c.settings.Globals)
	if globals == nil {
		globals = map[string]any{}
	}
	maps.Copy(globals, c.data)
	return globals
}

// Run executes one compile pass. Per-job template and render failures are
// logged and recorded in the report; write failures are also returned as an
// aggregate build error. A missing input root aborts the pass.
func (c *Compiler) Run(ctx context.Context) (*Report, error) {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	passID := uuid.NewString()
	ctx = observability.WithPassID(ctx, passID)
	logger := observability.Logger(ctx, c.logger)
	report := newReport(passID)

	defer func() {
		c.store.Clear()
		report.End = time.Now()
		c.recorder.ObservePassDuration(report.Duration())
		c.recorder.IncPassOutcome(report.Outcome())
		logger.Info("Compile pass finished",
			slog.String("outcome", string(report.Outcome())),
			logfields.Count(len(report.Written)),
			logfields.DurationMS(float64(report.Duration().Microseconds())/1000))
	}()

	input := absPath(c.settings.Input)
	outRoot := absPath(c.settings.Output)

	info, err := os.Stat(input)
	if err != nil {
		report.Fatal = ferrors.NotFoundError("input root does not exist").
			WithCause(err).
			WithContext("path", input).
			Fatal().
			Build()
		logger.Error("Missing input root", logfields.Path(input), logfields.Error(err))
		return report, report.Fatal
	}

	root := input
	var (
		jobs  []job
		index *collections.Index
	)
	if info.IsDir() {
		index, err = c.buildIndex(ctx, input, outRoot)
		if err != nil {
			report.Fatal = err
			return report, err
		}
		report.Collections = index.Len()
		jobs = append(jobs, planPages(index, observability.Logger(observability.WithStage(ctx, "paginate"), c.logger))...)

		files, err := planFiles(ctx, input, outRoot, c.settings.IncludePaths, index)
		if err != nil {
			report.Fatal = ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot enumerate content files").
				WithContext("path", input).
				Fatal().
				Build()
			return report, report.Fatal
		}
		jobs = append(jobs, files...)
	} else {
		root = filepath.Dir(input)
		index = collections.NewIndex(root)
		jobs = append(jobs, job{
			kind:   JobFile,
			source: input,
			output: pathmap.NormalizeExt(filepath.Base(input)),
		})
	}
	report.Jobs = len(jobs)

	resolver := templates.NewResolver(root, c.settings.IncludePaths, c.store, c.md, logger)
	engine := templates.NewEngine(resolver,
		templates.WithAutoescape(c.settings.Autoescape),
		templates.WithGlobals(c.Globals()),
		templates.WithMarkdown(c.md),
	)
	views := firstPageViews(index)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.settings.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			start := time.Now()
			res := c.runJob(ctx, j, resolver, engine, views, outRoot)
			c.recorder.ObserveJobDuration(string(j.kind), time.Since(start))

			mu.Lock()
			defer mu.Unlock()
			issue := JobIssue{Kind: j.kind, Source: j.source, Output: j.output}
			if res.warn != nil {
				issue.Err = res.warn
				report.Warnings = append(report.Warnings, issue)
			}
			switch {
			case res.drop != nil:
				c.recorder.IncJobResult(string(j.kind), metrics.JobDropped)
				logger.Error("Render job dropped", logfields.JobKind(string(j.kind)),
					logfields.Path(j.source), logfields.Error(res.drop))
				issue.Err = res.drop
				report.Dropped = append(report.Dropped, issue)
			case res.writeErr != nil:
				c.recorder.IncJobResult(string(j.kind), metrics.JobFailed)
				logger.Error("Cannot write output", logfields.JobKind(string(j.kind)),
					logfields.Path(j.source), logfields.Output(j.output), logfields.Error(res.writeErr))
				issue.Err = res.writeErr
				report.WriteFailures = append(report.WriteFailures, issue)
			default:
				c.recorder.IncJobResult(string(j.kind), metrics.JobWritten)
				logger.Debug("Wrote output", logfields.JobKind(string(j.kind)), logfields.Path(j.source),
					logfields.Output(j.output), logfields.Layout(res.layout), logfields.Page(j.page.Number))
				report.Written = append(report.Written, res.written)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(report.WriteFailures) > 0 {
		errs := make([]error, 0, len(report.WriteFailures))
		for _, f := range report.WriteFailures {
			errs = append(errs, f.Err)
		}
		return report, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryBuild,
			fmt.Sprintf("%d output files could not be written", len(errs))).
			WithContext("pass_id", passID).
			Build()
	}
	return report, nil
}

func (c *Compiler) buildIndex(ctx context.Context, input, outRoot string) (*collections.Index, error) {
	ctx = observability.WithStage(ctx, "collections")
	logger := observability.Logger(ctx, c.logger)
	builder := collections.NewBuilder(collections.Options{
		Root:        input,
		OutRoot:     outRoot,
		ProjectRoot: c.settings.ProjectRoot,
		Exclude:     c.settings.IncludePaths,
		Store:       c.store,
		Logger:      logger,
	})
	index, err := builder.Build(ctx, c.settings.Collections)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "cannot build collections").
			WithContext("path", input).
			Fatal().
			Build()
	}
	for _, name := range index.Names() {
		col, _ := index.Get(name)
		c.recorder.SetCollectionItems(name, len(col.Items))
		observability.Logger(observability.WithCollection(ctx, name), c.logger).
			Debug("Collection ready", logfields.Items(len(col.Items)))
	}
	return index, nil
}

// planPages expands every collection with an index template into one job per page.
func planPages(index *collections.Index, logger *slog.Logger) []job {
	var jobs []job
	for _, name := range index.Names() {
		col, _ := index.Get(name)
		if col.IndexPath == "" {
			logger.Warn("Collection has no index template, pages not rendered", logfields.Collection(name))
			continue
		}
		for _, page := range pagination.Paginate(col) {
			jobs = append(jobs, job{
				kind:       JobPage,
				source:     col.IndexPath,
				output:     page.OutputPath,
				collection: col,
				page:       page,
			})
		}
	}
	return jobs
}

// planFiles enumerates the compilable files under input that are not
// already rendered as collection pages.
func planFiles(ctx context.Context, input, outRoot string, includes []string, index *collections.Index) ([]job, error) {
	excluder := pathmap.NewExcluder(input, append(append([]string(nil), includes...), outRoot)...)
	var jobs []job

	err := filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != input && excluder.SkipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluder.SkipFile(p) || !pathmap.IsSource(p) || index.Covers(p) {
			return nil
		}
		rel, err := filepath.Rel(input, p)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{
			kind:   JobFile,
			source: p,
			output: filepath.ToSlash(pathmap.NormalizeExt(rel)),
		})
		return nil
	})
	return jobs, err
}

func firstPageViews(index *collections.Index) map[string]pagination.View {
	views := make(map[string]pagination.View, index.Len())
	for _, name := range index.Names() {
		col, _ := index.Get(name)
		views[name] = pagination.FirstPageView(col)
	}
	return views
}

type jobResult struct {
	written string
	layout  string
	// warn is a recovered issue; the output was still written.
	warn     error
	drop     error
	writeErr error
}

// runJob loads, renders and writes one job.
func (c *Compiler) runJob(ctx context.Context, j job, resolver *templates.Resolver, engine *templates.Engine,
	views map[string]pagination.View, outRoot string,
) jobResult {
	src, err := resolver.Load(j.source)
	if err != nil {
		return jobResult{drop: err}
	}
	res := jobResult{layout: src.Layout, warn: src.MetadataErr}

	scope := jobContext(j, src, views)
	out, err := engine.Render(ctx, src, scope)
	if err != nil {
		res.drop = err
		return res
	}

	res.written, err = writeOutput(outRoot, j.output, out)
	if err != nil {
		res.writeErr = ferrors.FileSystemError("cannot write output").
			WithCause(err).
			WithContext("path", j.source).
			WithContext("output", j.output).
			Build()
	}
	return res
}

// jobContext assembles the per-job render context. Views are value
// snapshots; the job's own collection is repositioned on its page.
func jobContext(j job, src templates.Source, views map[string]pagination.View) map[string]any {
	all := maps.Clone(views)
	if j.kind == JobPage {
		all[j.collection.Name] = pagination.NewView(j.collection, j.page)
	}

	ctx := make(map[string]any, len(all)+4)
	for name, v := range all {
		ctx[name] = v
	}
	ctx[KeyCollections] = all
	ctx[KeyPage] = src.FrontMatter
	ctx[KeyURL] = pathmap.URL(j.output)
	ctx[KeyRelativePathPrefix] = pathmap.RelativePrefix(filepath.Dir(filepath.FromSlash(j.output)))
	return ctx
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
