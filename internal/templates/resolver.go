package templates

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
)

// Source is a resolved, normalized template ready for rendering.
type Source struct {
	// Name is the name the template was requested by.
	Name string
	// Path is the resolved file. Empty when nothing resolved.
	Path string
	// Body is the template text with front matter removed and markdown converted.
	Body string
	// FrontMatter is the file's metadata mapping, never nil.
	FrontMatter map[string]any
	// Layout names the parent template declared by the `layout` key.
	Layout string
	// MetadataErr is set when the metadata block was malformed and ignored.
	MetadataErr error
}

// Resolved reports whether the source was backed by a file.
func (s Source) Resolved() bool {
	return s.Path != ""
}

// Resolver locates named templates across the content root and include roots.
type Resolver struct {
	root     string
	includes []string
	store    *frontmatter.Store
	md       *markdown.Converter
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a Resolver. Relative include paths are taken relative
// to root. Underscore-prefixed directories of root are always searched after
// the configured include paths.
func NewResolver(root string, includePaths []string, store *frontmatter.Store, md *markdown.Converter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if md == nil {
		md = markdown.New()
	}
	r := &Resolver{
		root:   root,
		store:  store,
		md:     md,
		logger: logger,
		cache:  make(map[string]string),
	}

	seen := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] {
			return
		}
		seen[dir] = true
		r.includes = append(r.includes, dir)
	}
	for _, p := range includePaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if filepath.IsAbs(p) {
			add(p)
			continue
		}
		add(filepath.Join(root, p))
	}
	for _, dir := range underscoreDirs(root) {
		add(dir)
	}
	return r
}

// Resolve maps name to a file path. Lookup order: the literal path, the path
// under the content root, a recursive match in each include root, then a
// recursive match in the content root. The first hit in lexical walk order wins.
func (r *Resolver) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	r.mu.Lock()
	cached, ok := r.cache[name]
	r.mu.Unlock()
	if ok {
		return cached, cached != ""
	}

	found := r.resolve(name)

	r.mu.Lock()
	r.cache[name] = found
	r.mu.Unlock()
	return found, found != ""
}

func (r *Resolver) resolve(name string) string {
	if isFile(name) {
		if abs, err := filepath.Abs(name); err == nil {
			return abs
		}
		return name
	}
	if !filepath.IsAbs(name) {
		if p := filepath.Join(r.root, name); isFile(p) {
			return p
		}
	}

	suffix := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	for _, dir := range r.includes {
		if p := findSuffix(dir, suffix); p != "" {
			return p
		}
	}
	return findSuffix(r.root, suffix)
}

// Load resolves name and returns its normalized source. An unresolved name is
// logged and yields an empty Source without error.
func (r *Resolver) Load(name string) (Source, error) {
	src := Source{Name: name, FrontMatter: map[string]any{}}

	path, ok := r.Resolve(name)
	if !ok {
		r.logger.Warn("Template not found", logfields.Template(name))
		return src, nil
	}
	src.Path = path

	doc, err := r.store.Parse(path)
	switch {
	case err == nil:
	case errors.Is(err, frontmatter.ErrEmpty):
		return src, nil
	case errors.Is(err, frontmatter.ErrMalformed):
		r.logger.Warn("Malformed front matter, continuing with empty mapping",
			logfields.Path(path), logfields.Error(err))
		src.MetadataErr = err
	default:
		return src, ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot load template").
			WithContext("template", name).
			WithContext("path", path).
			Build()
	}

	src.FrontMatter = doc.FrontMatter
	src.Body = doc.Content
	if layout, ok := doc.FrontMatter["layout"].(string); ok {
		src.Layout = strings.TrimSpace(layout)
	}

	if markdown.IsMarkdown(path) {
		html, err := r.md.Convert(src.Body)
		if err != nil {
			return src, ferrors.WrapError(err, ferrors.CategoryRender, "cannot convert markdown").
				WithContext("path", path).
				Build()
		}
		src.Body = html
	}
	return src, nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func findSuffix(dir, suffix string) string {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}

	var found string
	sep := string(filepath.Separator)
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		if rel == suffix || strings.HasSuffix(rel, sep+suffix) {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func underscoreDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	dirs := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "_") {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs
}
