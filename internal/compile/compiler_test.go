package compile

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/collections"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func readOutput(t *testing.T, out, rel string) string {
	t.Helper()
	// #nosec G304 -- test output path.
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func newTestCompiler(t *testing.T, settings Settings, opts ...Option) (*Compiler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if settings.Concurrency == 0 {
		settings.Concurrency = 4
	}
	c, err := New(settings, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return c, &logs
}

func TestRun_PaginatedCollection(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"posts/index.html": "---\ncollection: true\npaginate: 2\n---\n" +
			"{{ range .posts.Page.Items }}{{ .title }};{{ end }}" +
			"|next={{ .posts.Page.NextPageURL }}|prev={{ .posts.Page.PrevPageURL }}|prefix={{ .relativePathPrefix }}",
		"posts/a.html": "---\ndate: 2024-01-01\n---\nA",
		"posts/b.html": "---\ndate: 2024-02-01\n---\nB",
		"posts/c.html": "---\ndate: 2024-03-01\n---\nC",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Collections)
	require.Equal(t, 5, report.Jobs)
	require.Len(t, report.Written, 5)
	require.Equal(t, metrics.PassSuccess, report.Outcome())

	require.Equal(t, "c;b;|next=posts/2|prev=|prefix=../", readOutput(t, out, "posts/index.html"))
	require.Equal(t, "a;|next=|prev=posts|prefix=../../", readOutput(t, out, "posts/2/index.html"))
	require.Equal(t, "A", readOutput(t, out, "posts/a.html"))
	require.NoFileExists(t, filepath.Join(out, "posts", "3", "index.html"))
}

func TestRun_UnpublishedItemsExcluded(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"notes/index.html": "{{ range .notes.Items }}{{ .title }},{{ end }}",
		"notes/one.md":     "---\ntitle: One\ndate: 2024-01-01\n---\nfirst",
		"notes/draft.md":   "---\ntitle: Draft\npublished: false\n---\nhidden",
	})

	c, _ := newTestCompiler(t, Settings{
		Input:       root,
		Output:      out,
		Autoescape:  true,
		Collections: []collections.Spec{{Name: "notes"}},
	})
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "One,", readOutput(t, out, "notes/index.html"))
}

func TestRun_NoFrontMatterUnmodified(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	body := "<!doctype html>\n<p>plain page</p>\n"
	writeTree(t, root, map[string]string{"plain.html": body})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	require.Equal(t, body, readOutput(t, out, "plain.html"))
}

func TestRun_MissingLayoutYieldsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"broken.html": "---\nlayout: nowhere.html\n---\nbody",
		"fine.html":   "fine",
	})

	c, logs := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Written, 2)
	require.Empty(t, readOutput(t, out, "broken.html"))
	require.Equal(t, "fine", readOutput(t, out, "fine.html"))
	require.Contains(t, logs.String(), "Template not found")
	require.Contains(t, logs.String(), "nowhere.html")
}

func TestRun_LayoutAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"_layouts/base.html":    "<title>{{ .page.title }}</title><main>{{ .content }}</main>",
		"guide/deep/install.md": "---\ntitle: Install\nlayout: base.html\n---\n# Install\n\n[home]({{ .relativePathPrefix }}index.html)\n",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	html := readOutput(t, out, "guide/deep/install.html")
	require.Contains(t, html, "<title>Install</title>")
	require.Contains(t, html, "<main><h1")
	require.Contains(t, html, `href="../../index.html"`)
	require.NoFileExists(t, filepath.Join(out, "_layouts", "base.html"))
}

func TestRun_URLAndPrefix(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"index.html":           "[{{ .url }}][{{ .relativePathPrefix }}]",
		"docs/index.html":      "[{{ .url }}][{{ .relativePathPrefix }}]",
		"docs/setup/page.tmpl": "[{{ .url }}][{{ .relativePathPrefix }}]",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: false})
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "[][]", readOutput(t, out, "index.html"))
	require.Equal(t, "[docs][../]", readOutput(t, out, "docs/index.html"))
	require.Equal(t, "[docs/setup/page.html][../../]", readOutput(t, out, "docs/setup/page.html"))
}

func TestRun_MissingInputRootIsFatal(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")

	c, _ := newTestCompiler(t, Settings{Input: filepath.Join(dir, "absent"), Output: out})
	report, err := c.Run(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	require.Equal(t, metrics.PassAborted, report.Outcome())
	require.Zero(t, report.Jobs)
	require.NoDirExists(t, out)
}

func TestRun_RenderFailureDropsOnlyThatJob(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"bad.html":  "---\nnums: [1]\n---\n{{ index .page.nums 5 }}",
		"good.html": "good",
	})

	c, logs := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Dropped, 1)
	require.True(t, ferrors.HasCategory(report.Dropped[0].Err, ferrors.CategoryRender))
	require.Equal(t, metrics.PassPartial, report.Outcome())
	require.NoFileExists(t, filepath.Join(out, "bad.html"))
	require.Equal(t, "good", readOutput(t, out, "good.html"))
	require.Contains(t, logs.String(), "bad.html")
}

func TestRun_MalformedFrontMatterWarns(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"odd.html": "---\ntitle: [unclosed\n---\nstill here",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, "still here", readOutput(t, out, "odd.html"))
}

func TestRun_WriteFailureIsAggregated(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"blocked/page.html": "blocked",
		"open.html":         "open",
	})
	// A regular file where the output directory must go.
	writeTree(t, out, map[string]string{"blocked": "not a directory"})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	require.Len(t, report.WriteFailures, 1)
	require.Equal(t, metrics.PassFailed, report.Outcome())
	require.Equal(t, "open", readOutput(t, out, "open.html"))
}

func TestRun_ClearsStoreAfterPass(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{"page.html": "---\ntitle: v1\n---\n{{ .page.title }}"})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, c.Store().Len())
	require.Equal(t, "v1", readOutput(t, out, "page.html"))

	// Same size, same mtime: only a cleared cache sees the edit.
	p := filepath.Join(root, "page.html")
	info, err := os.Stat(p)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: v2\n---\n{{ .page.title }}"), 0o600))
	require.NoError(t, os.Chtimes(p, info.ModTime(), info.ModTime()))

	_, err = c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v2", readOutput(t, out, "page.html"))
}

func TestRun_SingleFileInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")
	writeTree(t, dir, map[string]string{"notes/readme.md": "# Readme\n"})

	c, _ := newTestCompiler(t, Settings{Input: filepath.Join(dir, "notes", "readme.md"), Output: out, Autoescape: true})
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Jobs)
	require.Contains(t, readOutput(t, out, "readme.html"), "Readme</h1>")
}

func TestRun_GlobalsAndDataReload(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, dir, map[string]string{
		"data/site-links.json": `{"home": "https://example.org"}`,
		"package.json":         `{"name": "demo"}`,
		"src/index.html":       "{{ .site.title }}|{{ .site_links.home }}|{{ .package.name }}",
	})

	c, _ := newTestCompiler(t, Settings{
		Input:       root,
		Output:      out,
		ProjectRoot: dir,
		Autoescape:  false,
		Globals:     map[string]any{"site": map[string]any{"title": "Demo"}},
		DataFiles:   []string{"data/site-links.json"},
	})
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Demo|https://example.org|demo", readOutput(t, out, "index.html"))

	writeTree(t, dir, map[string]string{"data/site-links.json": `{"home": "https://example.net"}`})
	require.NoError(t, c.ReloadData())
	_, err = c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Demo|https://example.net|demo", readOutput(t, out, "index.html"))
}

func TestReloadData_KeepsPreviousValueOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"links.json": `{"a": 1}`})

	c, _ := newTestCompiler(t, Settings{Input: dir, Output: filepath.Join(dir, "out"), DataFiles: []string{"links.json"}, ProjectRoot: dir})
	require.Contains(t, c.Globals(), "links")

	writeTree(t, dir, map[string]string{"links.json": `{broken`})
	require.Error(t, c.ReloadData())
	require.Equal(t, map[string]any{"a": float64(1)}, c.Globals()["links"])
}

func TestRun_CollectionsMapAndOtherCollections(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"posts/index.html":    "---\ncollection: true\n---\nposts",
		"posts/hello.html":    "---\ntitle: Hello\n---\nhi",
		"projects/index.html": "---\ncollection: projects\nsort: title\n---\nprojects",
		"projects/beta.html":  "---\ntitle: Beta\n---\n",
		"projects/alpha.html": "---\ntitle: Alpha\n---\n",
		"about.html":          "{{ range .projects.Items }}{{ .title }} {{ end }}|{{ len .collections }}",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})
	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Alpha Beta |2", readOutput(t, out, "about.html"))
}

func TestRun_SerializesPasses(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"posts/index.html": "---\ncollection: true\n---\n{{ len .posts.Items }}",
		"posts/a.html":     "a",
		"posts/b.html":     "b",
	})

	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true})

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Run(context.Background())
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, "2", readOutput(t, out, "posts/index.html"))
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.PassOutcome
	jobs     map[metrics.JobResult]int
	items    map[string]int
}

func (r *countingRecorder) IncPassOutcome(o metrics.PassOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *countingRecorder) IncJobResult(_ string, res metrics.JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[res]++
}

func (r *countingRecorder) SetCollectionItems(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = n
}

func TestRun_RecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	writeTree(t, root, map[string]string{
		"posts/index.html": "---\ncollection: true\n---\nlist",
		"posts/a.html":     "a",
		"bad.html":         "{{ template \"nope\" }}",
	})

	rec := &countingRecorder{jobs: map[metrics.JobResult]int{}, items: map[string]int{}}
	c, _ := newTestCompiler(t, Settings{Input: root, Output: out, Autoescape: true}, WithRecorder(rec))
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []metrics.PassOutcome{metrics.PassPartial}, rec.outcomes)
	require.Equal(t, 2, rec.jobs[metrics.JobWritten])
	require.Equal(t, 1, rec.jobs[metrics.JobDropped])
	require.Equal(t, map[string]int{"posts": 1}, rec.items)
}

func TestNew_RequiresDirectories(t *testing.T) {
	_, err := New(Settings{Output: "dist"})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = New(Settings{Input: "src"})
	require.Error(t, err)
}
