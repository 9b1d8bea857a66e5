package frontmatter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestStoreParse_BlockPlusContentReproducesOriginal(t *testing.T) {
	dir := t.TempDir()
	cases := []string{
		"---\ntitle: Hello\ntags:\n  - a\n---\n<h1>{{ .page.title }}</h1>\n",
		"---\r\ntitle: Hello\r\n---\r\nbody\r\n",
		"---\n---\nbody only\n",
		"no front matter here\n",
	}

	for i, input := range cases {
		p := writeFile(t, dir, filepath.Join("case", string(rune('a'+i))+".html"), input)
		doc, err := NewStore().Parse(p)
		require.NoError(t, err)
		require.Equal(t, input, doc.Block+doc.Content)
	}
}

func TestStoreParse_NoFrontMatter_ReturnsEmptyMappingAndBody(t *testing.T) {
	p := writeFile(t, t.TempDir(), "plain.html", "<p>plain</p>\n")

	doc, err := NewStore().Parse(p)
	require.NoError(t, err)
	require.False(t, doc.Had)
	require.NotNil(t, doc.FrontMatter)
	require.Empty(t, doc.FrontMatter)
	require.Equal(t, "<p>plain</p>\n", doc.Content)
}

func TestStoreParse_CacheHitReturnsIndependentCopies(t *testing.T) {
	p := writeFile(t, t.TempDir(), "post.md", "---\ntitle: One\ntags: [a, b]\nmeta:\n  k: v\n---\nbody\n")

	hits := 0
	s := NewStore(WithLookupHook(func(hit bool) {
		if hit {
			hits++
		}
	}))

	first, err := s.Parse(p)
	require.NoError(t, err)
	second, err := s.Parse(p)
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	require.Equal(t, first.FrontMatter, second.FrontMatter)

	first.FrontMatter["title"] = "changed"
	first.FrontMatter["tags"].([]any)[0] = "z"
	first.FrontMatter["meta"].(map[string]any)["k"] = "w"

	require.Equal(t, "One", second.FrontMatter["title"])
	require.Equal(t, []any{"a", "b"}, second.FrontMatter["tags"])
	require.Equal(t, "v", second.FrontMatter["meta"].(map[string]any)["k"])

	third, err := s.Parse(p)
	require.NoError(t, err)
	require.Equal(t, "One", third.FrontMatter["title"])
}

func TestStoreParse_ChangedSignatureInvalidatesEntry(t *testing.T) {
	p := writeFile(t, t.TempDir(), "page.html", "---\ntitle: Old\n---\nx\n")
	s := NewStore()

	doc, err := s.Parse(p)
	require.NoError(t, err)
	require.Equal(t, "Old", doc.FrontMatter["title"])

	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: Newer\n---\nx\n"), 0o600))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(p, later, later))

	doc, err = s.Parse(p)
	require.NoError(t, err)
	require.Equal(t, "Newer", doc.FrontMatter["title"])
}

func TestStoreParse_StrictValidationDetectsSameSignatureEdit(t *testing.T) {
	p := writeFile(t, t.TempDir(), "page.html", "---\ntitle: AAA\n---\nx\n")
	info, err := os.Stat(p)
	require.NoError(t, err)

	loose := NewStore()
	strict := NewStore(WithStrictValidation(true))
	for _, s := range []*Store{loose, strict} {
		_, err = s.Parse(p)
		require.NoError(t, err)
	}

	// Same length, same mtime.
	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: BBB\n---\nx\n"), 0o600))
	require.NoError(t, os.Chtimes(p, info.ModTime(), info.ModTime()))

	doc, err := loose.Parse(p)
	require.NoError(t, err)
	require.Equal(t, "AAA", doc.FrontMatter["title"])

	doc, err = strict.Parse(p)
	require.NoError(t, err)
	require.Equal(t, "BBB", doc.FrontMatter["title"])
}

func TestStoreParse_Errors(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()

	_, err := s.Parse(filepath.Join(dir, "missing.html"))
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	empty := writeFile(t, dir, "empty.html", "")
	_, err = s.Parse(empty)
	require.ErrorIs(t, err, ErrEmpty)

	unclosed := writeFile(t, dir, "unclosed.html", "---\ntitle: x\nbody\n")
	doc, err := s.Parse(unclosed)
	require.ErrorIs(t, err, ErrMalformed)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryMetadata))
	require.Empty(t, doc.FrontMatter)
	require.Equal(t, "---\ntitle: x\nbody\n", doc.Content)

	badYAML := writeFile(t, dir, "bad.html", "---\ntitle: [unterminated\n---\nbody\n")
	doc, err = s.Parse(badYAML)
	require.ErrorIs(t, err, ErrMalformed)
	require.Empty(t, doc.FrontMatter)
	require.Equal(t, "body\n", doc.Content)
	require.Zero(t, s.Len())
}

func TestStoreClear(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", "a")
	b := writeFile(t, dir, "b.html", "b")
	s := NewStore()

	_, err := s.Parse(a)
	require.NoError(t, err)
	_, err = s.Parse(b)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	s.Clear(a)
	require.Equal(t, 1, s.Len())

	s.Clear()
	require.Zero(t, s.Len())
}
