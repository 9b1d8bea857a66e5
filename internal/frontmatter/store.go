package frontmatter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inful/mdfp"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

var (
	// ErrNotFound is returned when a path cannot be stat'd.
	ErrNotFound = errors.New("file not found")
	// ErrEmpty is returned for zero-length files.
	ErrEmpty = errors.New("file is empty")
	// ErrMalformed is returned when the metadata block cannot be parsed.
	ErrMalformed = errors.New("malformed front matter")
)

// Document is the parsed form of a content file.
type Document struct {
	// FrontMatter is never nil. Callers own it and may mutate it freely.
	FrontMatter map[string]any
	// Content is the body following the metadata block.
	Content string
	// Block is the raw metadata block including both delimiter lines.
	// Block + Content reproduces the file.
	Block string
	// Had reports whether the file started with a metadata block.
	Had bool
	// Fingerprint is the mdfp digest of the metadata and body.
	Fingerprint string
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	doc     Document
}

// Store parses front matter and caches the result per absolute path.
//
// A cached entry is reused while the file's (mtime, size) pair is unchanged.
// Two distinct contents with the same pair are indistinguishable unless
// strict validation is enabled.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	strict   bool
	onLookup func(hit bool)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStrictValidation re-reads the file on an (mtime, size) hit and compares
// content fingerprints before trusting the cache.
func WithStrictValidation(enabled bool) StoreOption {
	return func(s *Store) { s.strict = enabled }
}

// WithLookupHook registers a callback invoked on every cache lookup.
func WithLookupHook(fn func(hit bool)) StoreOption {
	return func(s *Store) { s.onLookup = fn }
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{entries: make(map[string]cacheEntry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse returns the document at path, from the cache when still valid.
//
// On ErrMalformed the returned Document carries an empty FrontMatter and the
// best-effort body so callers can log and proceed.
func (s *Store) Parse(path string) (Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Document{}, ferrors.WrapError(fmt.Errorf("%w: %w", ErrNotFound, err), ferrors.CategoryNotFound, "cannot stat content file").
			WithContext("path", abs).
			Build()
	}
	if info.IsDir() {
		return Document{}, ferrors.NotFoundError("content path is a directory").
			WithCause(ErrNotFound).
			WithContext("path", abs).
			Build()
	}
	if info.Size() == 0 {
		return Document{}, ferrors.NewError(ferrors.CategoryFileSystem, "content file is empty").
			WithCause(ErrEmpty).
			WithSeverity(ferrors.SeverityWarning).
			WithContext("path", abs).
			Build()
	}

	s.mu.RLock()
	entry, ok := s.entries[abs]
	s.mu.RUnlock()
	hit := ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime())

	var raw []byte
	if hit && s.strict {
		raw, err = os.ReadFile(abs)
		if err != nil {
			return Document{}, readError(abs, err)
		}
		if fingerprintOf(raw) != entry.doc.Fingerprint {
			hit = false
		}
	}
	if s.onLookup != nil {
		s.onLookup(hit)
	}
	if hit {
		return entry.doc.clone(), nil
	}

	if raw == nil {
		raw, err = os.ReadFile(abs)
		if err != nil {
			return Document{}, readError(abs, err)
		}
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return doc, ferrors.MetadataError("cannot parse front matter").
			WithCause(err).
			WithContext("path", abs).
			Build()
	}

	s.mu.Lock()
	s.entries[abs] = cacheEntry{modTime: info.ModTime(), size: info.Size(), doc: doc}
	s.mu.Unlock()

	return doc.clone(), nil
}

// Clear drops the given paths from the cache, or every entry when none are given.
func (s *Store) Clear(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(paths) == 0 {
		s.entries = make(map[string]cacheEntry)
		return
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		delete(s.entries, abs)
	}
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func parseDocument(raw []byte) (Document, error) {
	fm, body, had, _, err := Split(raw)
	if err != nil {
		return Document{FrontMatter: map[string]any{}, Content: string(raw)}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	block := string(raw[:len(raw)-len(body)])
	doc := Document{
		FrontMatter: map[string]any{},
		Content:     string(body),
		Block:       block,
		Had:         had,
		Fingerprint: fingerprintOf(raw),
	}
	if !had {
		return doc, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	doc.FrontMatter = fields
	return doc, nil
}

func fingerprintOf(raw []byte) string {
	fm, body, had, _, err := Split(raw)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(raw))
	}
	return mdfp.CalculateFingerprintFromParts(string(fm), string(body))
}

func readError(path string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read content file").
		WithContext("path", path).
		Build()
}

func (d Document) clone() Document {
	out := d
	out.FrontMatter = CloneMap(d.FrontMatter)
	return out
}

// CloneMap deep-copies a decoded YAML mapping.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}
