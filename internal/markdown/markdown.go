// Package markdown converts lightweight-markup bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Extensions lists the file extensions treated as markdown.
var Extensions = []string{".md", ".markdown"}

var (
	actionPattern      = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	placeholderPattern = regexp.MustCompile(`PAGEBUILDERACTION\d+X`)
)

// Converter renders markdown to HTML. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New returns a Converter with GitHub-flavoured extensions enabled.
// Raw HTML in the source is passed through.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert renders body to HTML.
//
// Template actions ({{ ... }}) are shielded from markdown processing so they
// survive conversion verbatim.
func (c *Converter) Convert(body string) (string, error) {
	actions := make([]string, 0)
	shielded := actionPattern.ReplaceAllStringFunc(body, func(m string) string {
		actions = append(actions, m)
		return placeholder(len(actions) - 1)
	})

	var buf bytes.Buffer
	pctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := c.md.Convert([]byte(shielded), &buf, parser.WithContext(pctx)); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	out := buf.String()
	for i := len(actions) - 1; i >= 0; i-- {
		out = strings.ReplaceAll(out, placeholder(i), actions[i])
	}
	return out, nil
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func placeholder(i int) string {
	return fmt.Sprintf("PAGEBUILDERACTION%dX", i)
}

// headingIDs generates auto heading ids from the literal text of a heading.
// Template actions are dropped from the slug since their rendered value is
// unknown at conversion time.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: map[string]bool{}}
}

func (h *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	value = placeholderPattern.ReplaceAll(value, nil)
	value = util.TrimRightSpace(util.TrimLeftSpace(value))

	slug := make([]byte, 0, len(value))
	for _, b := range value {
		switch {
		case b >= 'A' && b <= 'Z':
			slug = append(slug, b+'a'-'A')
		case b >= 'a' && b <= 'z', b >= '0' && b <= '9':
			slug = append(slug, b)
		case b == ' ' || b == '\t' || b == '-' || b == '_':
			slug = append(slug, '-')
		}
	}
	id := strings.Trim(string(slug), "-")
	if id == "" {
		id = "heading"
		if kind != ast.KindHeading {
			id = "id"
		}
	}

	candidate := id
	for i := 1; h.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", id, i)
	}
	h.used[candidate] = true
	return []byte(candidate)
}

func (h *headingIDs) Put(value []byte) {
	h.used[string(value)] = true
}
