package pathmap

import (
	"path/filepath"
	"strings"
)

// DefaultExcludedNames are directory names never compiled.
var DefaultExcludedNames = []string{"node_modules", ".git", ".svn", ".hg"}

// Excluder decides which paths a content walk skips: hidden and
// underscore-prefixed entries, DefaultExcludedNames, and any extra
// directories such as include roots or the output root.
type Excluder struct {
	names map[string]bool
	dirs  []string
}

// NewExcluder builds an Excluder. Relative dirs are taken relative to root.
func NewExcluder(root string, dirs ...string) *Excluder {
	e := &Excluder{names: make(map[string]bool)}
	for _, n := range DefaultExcludedNames {
		e.names[n] = true
	}
	for _, d := range dirs {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		if abs, err := filepath.Abs(d); err == nil {
			d = abs
		}
		e.dirs = append(e.dirs, filepath.Clean(d))
	}
	return e
}

// SkipDir reports whether the directory at path should not be descended into.
func (e *Excluder) SkipDir(path string) bool {
	name := filepath.Base(path)
	if e.hiddenName(name) || e.names[name] {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	for _, d := range e.dirs {
		if abs == d {
			return true
		}
	}
	return false
}

// SkipFile reports whether a file should be ignored.
func (e *Excluder) SkipFile(path string) bool {
	return e.hiddenName(filepath.Base(path))
}

func (e *Excluder) hiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// Within reports whether path equals dir or lies beneath it.
func Within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
