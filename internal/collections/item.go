package collections

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
)

// Computed item keys.
const (
	KeyFileName   = "fileName"
	KeyFilePath   = "filePath"
	KeyCollection = "collection"
	KeyURL        = "url"
	KeyTitle      = "title"
	KeyDate       = "date"
	KeyPublished  = "published"
)

// Item is one content file of a collection: its front matter plus computed
// fields. Items are built once per pass and treated as read-only afterwards.
type Item map[string]any

// URL returns the item's canonical link.
func (i Item) URL() string { return i.String(KeyURL) }

// Title returns the item's title.
func (i Item) Title() string { return i.String(KeyTitle) }

// Date returns the parsed date, or the zero time when absent or unparseable.
func (i Item) Date() time.Time {
	t, _ := frontmatter.ParseDate(i[KeyDate])
	return t
}

// Published reports false only when front matter sets `published: false`.
func (i Item) Published() bool {
	if v, ok := i[KeyPublished].(bool); ok {
		return v
	}
	return true
}

// String returns a field formatted as text.
func (i Item) String(key string) string {
	switch v := i[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (i Item) dateOf(key string) time.Time {
	t, _ := frontmatter.ParseDate(i[key])
	return t
}
