package collections

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/pathmap"
)

// Options configures a Builder.
type Options struct {
	// Root is the content root.
	Root string
	// OutRoot is the output root. Explicit collections clear their output
	// directory under it before a pass.
	OutRoot string
	// ProjectRoot anchors each item's filePath. Defaults to Root.
	ProjectRoot string
	// Exclude lists extra directories skipped during discovery.
	Exclude []string
	Store   *frontmatter.Store
	Logger  *slog.Logger
}

// Builder discovers and instantiates collections.
type Builder struct {
	root        string
	outRoot     string
	projectRoot string
	excluder    *pathmap.Excluder
	store       *frontmatter.Store
	logger      *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	root := absPath(opts.Root)
	projectRoot := root
	if opts.ProjectRoot != "" {
		projectRoot = absPath(opts.ProjectRoot)
	}
	outRoot := ""
	if opts.OutRoot != "" {
		outRoot = absPath(opts.OutRoot)
	}
	exclude := append([]string(nil), opts.Exclude...)
	if outRoot != "" {
		exclude = append(exclude, outRoot)
	}
	store := opts.Store
	if store == nil {
		store = frontmatter.NewStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		root:        root,
		outRoot:     outRoot,
		projectRoot: projectRoot,
		excluder:    pathmap.NewExcluder(root, exclude...),
		store:       store,
		logger:      logger,
	}
}

// Build produces the collections of one pass: auto-discovered collections
// unioned with the explicit specs, explicit winning on name collision.
// Collections without items are kept with an empty item list.
func (b *Builder) Build(ctx context.Context, specs []Spec) (*Index, error) {
	index := NewIndex(b.root)

	discovered, err := b.Discover(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range discovered {
		index.put(c)
	}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := cleanName(spec.Name)
		if name == "" {
			b.logger.Warn("Skipping collection with invalid name", logfields.Collection(spec.Name))
			continue
		}

		c := &Collection{
			Name:      name,
			Sort:      NormalizeSort(spec.Sort),
			Paginate:  max(spec.Paginate, 0),
			IndexPath: b.findIndex(name),
			Explicit:  true,
		}
		if c.IndexPath == "" {
			if prev, ok := index.Get(name); ok {
				c.IndexPath = prev.IndexPath
			}
		}

		b.clearOutput(name)

		items, err := b.Items(ctx, c)
		if err != nil {
			return nil, err
		}
		c.Items = items
		index.put(c)
	}

	return index, nil
}

// Discover scans for index files whose front matter carries a truthy
// `collection` marker. The marker string names the collection; `true` uses
// the index file's parent directory.
func (b *Builder) Discover(ctx context.Context) ([]*Collection, error) {
	found := make([]*Collection, 0)
	seen := make(map[string]bool)

	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != b.root && b.excluder.SkipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.excluder.SkipFile(p) || !pathmap.IsIndex(p) {
			return nil
		}

		doc, perr := b.store.Parse(p)
		if perr != nil {
			if errors.Is(perr, frontmatter.ErrMalformed) {
				b.logger.Warn("Malformed front matter in index file", logfields.Path(p), logfields.Error(perr))
			}
			return nil
		}

		name := b.markerName(p, doc.FrontMatter["collection"])
		if name == "" || seen[name] {
			return nil
		}
		seen[name] = true

		c := &Collection{
			Name:      name,
			Sort:      NormalizeSort(doc.FrontMatter["sort"]),
			Paginate:  toInt(doc.FrontMatter["paginate"]),
			IndexPath: p,
		}
		items, ierr := b.Items(ctx, c)
		if ierr != nil {
			return ierr
		}
		c.Items = items
		found = append(found, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Items collects, defaults and sorts the items under <root>/<name>.
func (b *Builder) Items(ctx context.Context, c *Collection) ([]Item, error) {
	dir := filepath.Join(b.root, filepath.FromSlash(c.Name))
	items := make([]Item, 0)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return items, nil
	}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != dir && b.excluder.SkipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if b.excluder.SkipFile(p) || !pathmap.IsSource(p) {
			return nil
		}
		if p == c.IndexPath || (filepath.Dir(p) == dir && pathmap.IsIndex(p)) {
			return nil
		}

		item, ok := b.item(c.Name, dir, p)
		if ok {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	Sort(items, c.Sort)
	return items, nil
}

func (b *Builder) item(name, dir, p string) (Item, bool) {
	doc, err := b.store.Parse(p)
	switch {
	case err == nil, errors.Is(err, frontmatter.ErrEmpty):
	case errors.Is(err, frontmatter.ErrMalformed):
		b.logger.Warn("Malformed front matter, continuing with empty mapping",
			logfields.Collection(name), logfields.Path(p), logfields.Error(err))
	default:
		b.logger.Warn("Skipping unreadable collection item",
			logfields.Collection(name), logfields.Path(p), logfields.Error(err))
		return nil, false
	}

	item := Item(doc.FrontMatter)
	if item == nil {
		item = Item{}
	}
	if !item.Published() {
		return nil, false
	}

	within, err := filepath.Rel(dir, p)
	if err != nil {
		return nil, false
	}
	base := filepath.Base(p)

	item[KeyFileName] = base
	item[KeyFilePath] = b.relToProject(p)
	item[KeyCollection] = name
	item[KeyURL] = pathmap.URL(path.Join(name, filepath.ToSlash(within)))

	if strings.TrimSpace(item.Title()) == "" {
		item[KeyTitle] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if _, ok := item[KeyDate]; !ok || item[KeyDate] == nil {
		if info, statErr := os.Stat(p); statErr == nil {
			item[KeyDate] = info.ModTime().Truncate(time.Minute).Format(frontmatter.DateLayout)
		}
	}
	return item, true
}

// findIndex returns the first index file directly under <root>/<name>.
func (b *Builder) findIndex(name string) string {
	dir := filepath.Join(b.root, filepath.FromSlash(name))
	for _, ext := range pathmap.SourceExtensions {
		p := filepath.Join(dir, pathmap.IndexName+ext)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// clearOutput removes <outRoot>/<name> so pages of a previous, larger pass
// do not survive. Directories overlapping the content are left alone.
func (b *Builder) clearOutput(name string) {
	if b.outRoot == "" {
		return
	}
	target := filepath.Join(b.outRoot, filepath.FromSlash(name))
	source := filepath.Join(b.root, filepath.FromSlash(name))
	if target == b.outRoot || !pathmap.Within(target, b.outRoot) ||
		pathmap.Within(b.root, target) || pathmap.Within(source, target) {
		b.logger.Warn("Refusing to clear collection output overlapping content",
			logfields.Collection(name), logfields.Output(target))
		return
	}
	if err := os.RemoveAll(target); err != nil {
		b.logger.Warn("Failed to clear collection output",
			logfields.Collection(name), logfields.Output(target),
			logfields.Error(ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove output directory").Build()))
	}
}

// markerName derives a collection name from an index file's `collection`
// marker. A string names the collection; any other truthy scalar names it
// after the index file's directory.
func (b *Builder) markerName(indexPath string, marker any) string {
	switch v := marker.(type) {
	case nil:
		return ""
	case string:
		return cleanName(v)
	case bool:
		if !v {
			return ""
		}
	case int:
		if v == 0 {
			return ""
		}
	case int64:
		if v == 0 {
			return ""
		}
	case uint64:
		if v == 0 {
			return ""
		}
	case float64:
		if v == 0 || math.IsNaN(v) {
			return ""
		}
	default:
		b.logger.Warn("Ignoring collection marker that is not a string, boolean or number",
			logfields.Path(indexPath), slog.String("marker_type", fmt.Sprintf("%T", marker)))
		return ""
	}

	dir := filepath.Dir(indexPath)
	if dir == b.root {
		b.logger.Warn("Ignoring collection marker on the content root index", logfields.Path(indexPath))
		return ""
	}
	rel, err := filepath.Rel(b.root, dir)
	if err != nil {
		return ""
	}
	return cleanName(filepath.ToSlash(rel))
}

func (b *Builder) relToProject(p string) string {
	rel, err := filepath.Rel(b.projectRoot, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// cleanName trims a collection name and rejects names escaping the root.
func cleanName(name string) string {
	name = strings.Trim(strings.TrimSpace(filepath.ToSlash(name)), "/")
	if name == "" {
		return ""
	}
	name = path.Clean(name)
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return ""
	}
	return name
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return max(n, 0)
	case int64:
		return max(int(n), 0)
	case uint64:
		return int(n)
	case float64:
		return max(int(n), 0)
	default:
		return 0
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
