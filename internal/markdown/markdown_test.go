package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert_RendersHeadingsAndEmphasis(t *testing.T) {
	out, err := New().Convert("# Hello\n\nSome *text*.\n")
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	require.Contains(t, out, "<em>text</em>")
}

func TestConvert_KeepsTemplateActionsVerbatim(t *testing.T) {
	body := "# {{ .page.title }}\n\n{{ .page.author | default \"anon\" }} wrote *this*.\n"

	out, err := New().Convert(body)
	require.NoError(t, err)
	require.Contains(t, out, `{{ .page.title }}`)
	require.Contains(t, out, `{{ .page.author | default "anon" }}`)
	require.NotContains(t, out, "PAGEBUILDERACTION")
}

func TestConvert_GFMTable(t *testing.T) {
	out, err := New().Convert("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
}

func TestIsMarkdown(t *testing.T) {
	require.True(t, IsMarkdown("posts/a.md"))
	require.True(t, IsMarkdown("posts/a.MARKDOWN"))
	require.False(t, IsMarkdown("posts/a.html"))
	require.False(t, IsMarkdown("posts/md"))
}

func TestConvert_HeadingIDsSkipTemplateActions(t *testing.T) {
	body := "# {{ .page.title }}\n\n## Intro {{ .site.name }}\n\n## Intro {{ .page.author }}\n\n## Set-up_Guide\n"

	out, err := New().Convert(body)
	require.NoError(t, err)
	require.NotContains(t, strings.ToLower(out), "pagebuilderaction")
	require.Contains(t, out, `<h1 id="heading">{{ .page.title }}</h1>`)
	require.Contains(t, out, `<h2 id="intro">Intro {{ .site.name }}</h2>`)
	require.Contains(t, out, `<h2 id="intro-1">Intro {{ .page.author }}</h2>`)
	require.Contains(t, out, `<h2 id="set-up-guide">Set-up_Guide</h2>`)
}
