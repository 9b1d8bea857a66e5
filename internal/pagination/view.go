package pagination

import "git.home.luguber.info/inful/pagebuilder/internal/collections"

// View is the snapshot of a collection handed to a template. Each render job
// gets its own View; the underlying collection is never modified.
//
//	{{ range .posts.Page.Items }}<a href="{{ $.relativePathPrefix }}{{ .url }}">{{ .title }}</a>{{ end }}
type View struct {
	Name       string               `json:"name"`
	Items      []collections.Item   `json:"items"`
	Sort       collections.SortSpec `json:"sort"`
	Paginate   int                  `json:"paginate,omitempty"`
	TotalPages int                  `json:"totalPages"`
	Page       Page                 `json:"page"`
}

// NewView snapshots c with page as the current page.
func NewView(c *collections.Collection, page Page) View {
	return View{
		Name:       c.Name,
		Items:      c.Items,
		Sort:       c.Sort,
		Paginate:   c.Paginate,
		TotalPages: page.Total,
		Page:       page,
	}
}

// FirstPageView snapshots c positioned on its first page.
func FirstPageView(c *collections.Collection) View {
	return NewView(c, Paginate(c)[0])
}
