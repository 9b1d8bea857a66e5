package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func TestGlobalName(t *testing.T) {
	require.Equal(t, "links", GlobalName("data/links.json"))
	require.Equal(t, "site_nav", GlobalName("site-nav.yaml"))
	require.Equal(t, "my_data_v2", GlobalName("/x/my data.v2.yml"))
	require.Equal(t, "notes", GlobalName("notes.txt"))
}

func TestLoad_DecodesByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "links.json"), []byte(`{"home":"/","items":[1,2]}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "site-nav.yaml"), []byte("- name: Home\n  url: /\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "banner.txt"), []byte("hello"), 0o600))

	globals, err := Load(dir, []string{"data/links.json", "data/site-nav.yaml", "data/banner.txt"})
	require.NoError(t, err)

	links := globals["links"].(map[string]any)
	require.Equal(t, "/", links["home"])
	require.Equal(t, []any{float64(1), float64(2)}, links["items"])

	nav := globals["site_nav"].([]any)
	require.Equal(t, "Home", nav[0].(map[string]any)["name"])

	require.Equal(t, "hello", globals["banner"])
}

func TestLoad_ReportsFailuresAndKeepsTheRest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.json"), []byte(`{"a":1}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0o600))

	globals, err := Load(dir, []string{"ok.json", "bad.json", "missing.yaml"})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig) || ferrors.HasCategory(err, ferrors.CategoryNotFound))
	require.Contains(t, globals, "ok")
	require.NotContains(t, globals, "bad")
	require.NotContains(t, globals, "missing")
}

func TestLoadPackage(t *testing.T) {
	dir := t.TempDir()
	_, ok := LoadPackage(dir)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"site","version":"1.2.3"}`), 0o600))
	pkg, ok := LoadPackage(dir)
	require.True(t, ok)
	require.Equal(t, "1.2.3", pkg.(map[string]any)["version"])
}
