// Package data loads auxiliary data files exposed to templates as globals.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// PackageGlobal is the global holding the project's package.json, when present.
const PackageGlobal = "package"

var unsafeNameChars = regexp.MustCompile(`[.\-\s]`)

// GlobalName derives a template variable name from a data file path:
// the base name without extension, with dots, dashes and whitespace
// replaced by underscores.
func GlobalName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return unsafeNameChars.ReplaceAllString(base, "_")
}

// ReadFile decodes a data file: .json and .yaml/.yml are parsed, anything
// else is returned as raw text.
func ReadFile(path string) (any, error) {
	// #nosec G304 -- data files are listed in the project configuration.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return v, nil
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return v, nil
	default:
		return string(raw), nil
	}
}

// Load reads every data file into a globals map keyed by GlobalName.
// Relative paths are resolved against baseDir. Files that fail to load are
// reported in the joined error; the others are still returned.
func Load(baseDir string, files []string) (map[string]any, error) {
	globals := make(map[string]any, len(files))
	var errs []error

	for _, f := range files {
		if strings.TrimSpace(f) == "" {
			continue
		}
		p := f
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}

		v, err := ReadFile(p)
		if err != nil {
			category := ferrors.CategoryConfig
			if errors.Is(err, os.ErrNotExist) {
				category = ferrors.CategoryNotFound
			}
			errs = append(errs, ferrors.WrapError(err, category, "cannot load data file").
				WithContext("path", p).
				Build())
			continue
		}
		globals[GlobalName(p)] = v
	}

	return globals, errors.Join(errs...)
}

// LoadPackage reads dir/package.json when it exists.
func LoadPackage(dir string) (any, bool) {
	p := filepath.Join(dir, "package.json")
	if _, err := os.Stat(p); err != nil {
		return nil, false
	}
	v, err := ReadFile(p)
	if err != nil {
		return nil, false
	}
	return v, true
}
