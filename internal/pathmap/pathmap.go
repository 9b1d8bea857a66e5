// Package pathmap derives output paths, canonical URLs and root-relative link
// prefixes from content paths.
package pathmap

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// OutputExt is the published hypertext extension.
	OutputExt = ".html"
	// IndexName is the base name (without extension) of index files.
	IndexName = "index"
)

// SourceExtensions lists every extension compiled to OutputExt.
var SourceExtensions = []string{".html", ".htm", ".njk", ".tmpl", ".gohtml", ".md", ".markdown"}

// IsSource reports whether p has a compilable extension.
func IsSource(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsIndex reports whether the base name of p is an index file.
func IsIndex(p string) bool {
	base := filepath.Base(p)
	return IsSource(base) && strings.TrimSuffix(base, filepath.Ext(base)) == IndexName
}

// NormalizeExt replaces a template or markup extension with OutputExt.
// Paths with other extensions are returned unchanged.
func NormalizeExt(p string) string {
	if !IsSource(p) {
		return p
	}
	return strings.TrimSuffix(p, filepath.Ext(p)) + OutputExt
}

// OutputPath mirrors rel (relative to the content root) under outRoot.
func OutputPath(rel, outRoot string) string {
	return filepath.Join(outRoot, NormalizeExt(filepath.Clean(rel)))
}

// URL returns the canonical link for an output path relative to the output
// root: the directory for index files, the file path otherwise. The root
// index maps to "".
func URL(outputRel string) string {
	p := path.Clean(filepath.ToSlash(NormalizeExt(outputRel)))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	if path.Base(p) == IndexName+OutputExt {
		dir := path.Dir(p)
		if dir == "." {
			return ""
		}
		return dir
	}
	return p
}

// RelativePrefix returns the "../" segments leading from outputDir back to
// the output root. When fromRoot is given, outputDir is made relative to it
// first. The root itself yields "".
func RelativePrefix(outputDir string, fromRoot ...string) string {
	dir := outputDir
	if len(fromRoot) > 0 && fromRoot[0] != "" {
		if rel, err := filepath.Rel(fromRoot[0], outputDir); err == nil {
			dir = rel
		}
	}

	dir = path.Clean(filepath.ToSlash(dir))
	dir = strings.Trim(dir, "/")
	if dir == "." || dir == "" {
		return ""
	}

	depth := 0
	for _, seg := range strings.Split(dir, "/") {
		switch seg {
		case "", ".":
		case "..":
			if depth > 0 {
				depth--
			}
		default:
			depth++
		}
	}
	return strings.Repeat("../", depth)
}
