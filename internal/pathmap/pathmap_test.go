package pathmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeExt(t *testing.T) {
	cases := map[string]string{
		"about.njk":        "about.html",
		"posts/a.md":       "posts/a.html",
		"posts/b.markdown": "posts/b.html",
		"index.html":       "index.html",
		"feed.xml":         "feed.xml",
		"README":           "README",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeExt(in), in)
	}
}

func TestOutputPath_MirrorsUnderOutRoot(t *testing.T) {
	require.Equal(t, filepath.Join("dist", "blog", "post.html"), OutputPath(filepath.Join("blog", "post.md"), "dist"))
	require.Equal(t, filepath.Join("dist", "index.html"), OutputPath("index.njk", "dist"))
}

func TestURL(t *testing.T) {
	cases := map[string]string{
		"index.html":          "",
		"posts/index.html":    "posts",
		"posts/2/index.html":  "posts/2",
		"posts/a.html":        "posts/a.html",
		"about.njk":           "about.html",
		"docs/guide/index.md": "docs/guide",
		"/abs/looking/x.html": "abs/looking/x.html",
	}
	for in, want := range cases {
		require.Equal(t, want, URL(in), in)
	}
}

func TestRelativePrefix(t *testing.T) {
	require.Equal(t, "", RelativePrefix("."))
	require.Equal(t, "", RelativePrefix(""))
	require.Equal(t, "../", RelativePrefix("posts"))
	require.Equal(t, "../../", RelativePrefix("posts/2"))

	out := filepath.Join("site", "dist")
	require.Equal(t, "", RelativePrefix(out, out))
	require.Equal(t, "../../", RelativePrefix(filepath.Join(out, "posts", "3"), out))
}

func TestIsIndex(t *testing.T) {
	require.True(t, IsIndex("posts/index.html"))
	require.True(t, IsIndex("index.md"))
	require.False(t, IsIndex("posts/indexes.html"))
	require.False(t, IsIndex("index.xml"))
}
