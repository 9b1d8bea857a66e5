// Package collections builds the named content collections of a compile pass.
package collections

import (
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/pagebuilder/internal/pathmap"
)

// Collection is a named, ordered group of content items.
type Collection struct {
	Name  string
	Items []Item
	Sort  SortSpec
	// Paginate is the page size. Zero renders every item on a single page.
	Paginate int
	// IndexPath is the template rendered for each page. Empty when the
	// collection has no index file.
	IndexPath string
	// Explicit is true for collections declared in configuration.
	Explicit bool
}

// Spec is an explicitly configured collection.
type Spec struct {
	Name     string
	Sort     any
	Paginate int
}

// Index is the set of collections built for one pass. It is read-only once
// Build returns.
type Index struct {
	root  string
	byKey map[string]*Collection
	names []string
}

// NewIndex creates an empty Index for the content root.
func NewIndex(root string) *Index {
	return &Index{root: root, byKey: make(map[string]*Collection)}
}

func (x *Index) put(c *Collection) {
	if _, ok := x.byKey[c.Name]; !ok {
		x.names = append(x.names, c.Name)
		sort.Strings(x.names)
	}
	x.byKey[c.Name] = c
}

// Get returns the named collection.
func (x *Index) Get(name string) (*Collection, bool) {
	c, ok := x.byKey[name]
	return c, ok
}

// Names returns collection names in lexical order.
func (x *Index) Names() []string {
	return append([]string(nil), x.names...)
}

// Len returns the number of collections.
func (x *Index) Len() int {
	return len(x.names)
}

// Covers reports whether the file at path is rendered as a collection's
// paginated index and must not be compiled on its own.
func (x *Index) Covers(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	for _, name := range x.names {
		c := x.byKey[name]
		if c.IndexPath == "" {
			continue
		}
		if abs == c.IndexPath {
			return true
		}
		if pathmap.IsIndex(abs) && filepath.Dir(abs) == filepath.Join(x.root, filepath.FromSlash(c.Name)) {
			return true
		}
	}
	return false
}
