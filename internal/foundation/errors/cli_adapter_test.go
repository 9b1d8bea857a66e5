package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"missing input root", NotFoundError("markup path does not exist").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"render", RenderError("render failed").Build(), 9},
		{"write failure", FileSystemError("write failed").Build(), 11},
		{"wrapped classified", stderrors.Join(stderrors.New("x"), BuildError("pass failed").Build()), 11},
		{"unclassified", stderrors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	err := RenderError("render failed").WithContext("path", "src/index.html").Build()
	require.Equal(t, "Error: render failed (src/index.html)", adapter.FormatError(err))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	require.Contains(t, verbose.FormatError(err), "[render:error]")
	require.Empty(t, adapter.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("bad config").WithContext("path", "pagebuilder.yaml").Build())

	require.Equal(t, 7, code)
	require.Contains(t, out.String(), "bad config")
	require.Contains(t, logs.String(), "category=config")
}
