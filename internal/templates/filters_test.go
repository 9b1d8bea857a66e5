package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilters(t *testing.T) {
	r, _ := newTestResolver(t, t.TempDir())
	e := NewEngine(r)
	data := map[string]any{
		"page": map[string]any{
			"title": "hello world",
			"date":  "2024-03-01",
			"tags":  []any{"go", "web"},
			"body":  "# Big\n\ntext",
		},
	}

	cases := map[string]string{
		`{{ .page.title | title }}`:                "Hello World",
		`{{ .page.title | upper }}`:                "HELLO WORLD",
		`{{ "MiXeD" | lower }}`:                    "mixed",
		`{{ .page.date | date "2006/01/02" }}`:     "2024/03/01",
		`{{ .page.date | date "" }}`:               "March 1, 2024",
		`{{ .page.tags | join ", " }}`:             "go, web",
		`{{ .page.missing | default "anon" }}`:     "anon",
		`{{ .page.title | default "anon" }}`:       "hello world",
		`{{ .page.body | markdown }}`:              "<h1 id=\"big\">Big</h1>\n<p>text</p>\n",
		`{{ "<p>one two three</p>" | excerpt 2 }}`: "one two…",
	}
	for tpl, want := range cases {
		out, err := e.RenderString(context.Background(), "filter", tpl, data)
		require.NoError(t, err, tpl)
		require.Equal(t, want, out, tpl)
	}
}

func TestExcerpt_SkipsScriptsAndKeepsShortText(t *testing.T) {
	require.Equal(t, "visible text", Excerpt("<script>var x</script><p>visible <em>text</em></p>", 10))
	require.Equal(t, "a b", Excerpt("a b", 0))
}
