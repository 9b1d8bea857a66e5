package templates

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"reflect"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
)

// DefaultDateLayout is used by the date filter when no layout is given.
const DefaultDateLayout = "January 2, 2006"

// filterFuncs returns the value filters available in every template.
// Filters take the piped value as their last argument.
func filterFuncs(md *markdown.Converter) map[string]any {
	titleCaser := cases.Title(language.English)

	return map[string]any{
		"title": func(v any) string { return titleCaser.String(toString(v)) },
		"lower": func(v any) string { return strings.ToLower(toString(v)) },
		"upper": func(v any) string { return strings.ToUpper(toString(v)) },
		"date":  formatDate,
		"excerpt": func(words int, v any) string {
			return Excerpt(toString(v), words)
		},
		"markdown": func(v any) (htmltemplate.HTML, error) {
			out, err := md.Convert(toString(v))
			if err != nil {
				return "", err
			}
			// #nosec G203 -- markdown output is trusted author content.
			return htmltemplate.HTML(out), nil
		},
		// #nosec G203 -- explicit opt-out requested by the template author.
		"safe": func(v any) htmltemplate.HTML { return htmltemplate.HTML(toString(v)) },
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"join":    joinValues,
		"default": defaultValue,
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case htmltemplate.HTML:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatDate renders v with a Go time layout: {{ .page.date | date "2006-01-02" }}.
// Values that do not parse as dates are returned unchanged.
func formatDate(layout string, v any) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	t, ok := frontmatter.ParseDate(v)
	if !ok {
		return toString(v)
	}
	return t.Format(layout)
}

func joinValues(sep string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, sep)
	case string:
		return t
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return toString(v)
	}
	parts := make([]string, 0, rv.Len())
	for i := range rv.Len() {
		parts = append(parts, toString(rv.Index(i).Interface()))
	}
	return strings.Join(parts, sep)
}

// defaultValue returns def when v is empty: {{ .page.author | default "anon" }}.
func defaultValue(def any, v any) any {
	if isEmpty(v) {
		return def
	}
	return v
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case time.Time:
		return t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Excerpt returns the first n words of the visible text in an HTML fragment.
// Script and style contents are skipped. An ellipsis marks truncation.
func Excerpt(fragment string, n int) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var words []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if n > 0 && len(words) > n {
			return
		}
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			words = append(words, strings.Fields(node.Data)...)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}
