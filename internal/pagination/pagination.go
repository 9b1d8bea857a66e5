// Package pagination splits collections into fixed-size pages.
package pagination

import (
	"path"
	"strconv"

	"git.home.luguber.info/inful/pagebuilder/internal/collections"
	"git.home.luguber.info/inful/pagebuilder/internal/pathmap"
)

// Page is one slice of a collection with its navigation metadata.
// Absent neighbours are zero values.
type Page struct {
	Collection  string             `json:"collection"`
	Number      int                `json:"pageNumber"`
	Total       int                `json:"totalPages"`
	URL         string             `json:"pageUrl"`
	NextPage    int                `json:"nextPage,omitempty"`
	NextPageURL string             `json:"nextPageUrl,omitempty"`
	PrevPage    int                `json:"prevPage,omitempty"`
	PrevPageURL string             `json:"prevPageUrl,omitempty"`
	Items       []collections.Item `json:"items"`

	// OutputPath is relative to the output root, slash separated.
	OutputPath string `json:"-"`
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.NextPage > 0 }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.PrevPage > 0 }

// Dir returns the output directory of the page, relative to the output root.
func (p Page) Dir() string { return path.Dir(p.OutputPath) }

// PageURL returns the link of page n: the bare name for page 1, name/n otherwise.
func PageURL(name string, n int) string {
	if n <= 1 {
		return name
	}
	return path.Join(name, strconv.Itoa(n))
}

// OutputPath returns where page n is written, relative to the output root.
func OutputPath(name string, n int) string {
	return path.Join(PageURL(name, n), pathmap.IndexName+pathmap.OutputExt)
}

// Paginate splits c into pages of c.Paginate items, preserving order.
// An unset page size yields a single page holding every item; an empty
// collection still yields one empty page.
func Paginate(c *collections.Collection) []Page {
	n := len(c.Items)
	size := c.Paginate
	if size <= 0 || size > n {
		size = max(n, 1)
	}
	total := max((n+size-1)/size, 1)

	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		start := (i - 1) * size
		end := min(start+size, n)
		start = min(start, n)

		page := Page{
			Collection: c.Name,
			Number:     i,
			Total:      total,
			URL:        PageURL(c.Name, i),
			Items:      c.Items[start:end:end],
			OutputPath: OutputPath(c.Name, i),
		}
		if i < total {
			page.NextPage = i + 1
			page.NextPageURL = PageURL(c.Name, i+1)
		}
		if i > 1 {
			page.PrevPage = i - 1
			page.PrevPageURL = PageURL(c.Name, i-1)
		}
		pages = append(pages, page)
	}
	return pages
}
