package compile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeOutput writes rendered content to relativePath under outRoot,
// replacing any previous output.
//
// The output path must stay inside outRoot; parent directories are created
// as needed.
func writeOutput(outRoot, relativePath, content string) (string, error) {
	if outRoot == "" {
		return "", errors.New("output directory is required")
	}
	if relativePath == "" {
		return "", errors.New("output path is required")
	}

	cleanRel := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path must be relative to %s", outRoot)
	}

	fullPath := filepath.Join(outRoot, cleanRel)
	rel, err := filepath.Rel(outRoot, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("output path escapes output directory")
	}

	if err = os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	// #nosec G306 -- published site files are world-readable.
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return fullPath, nil
}
