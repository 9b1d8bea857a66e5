package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPassID     = "pass_id"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyTemplate   = "template"
	KeyLayout     = "layout"
	KeyCollection = "collection"
	KeyPage       = "page"
	KeyItems      = "items"
	KeyJobKind    = "job_kind"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PassID(id string) slog.Attr       { return slog.String(KeyPassID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Layout(name string) slog.Attr     { return slog.String(KeyLayout, name) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func Page(n int) slog.Attr             { return slog.Int(KeyPage, n) }
func Items(n int) slog.Attr            { return slog.Int(KeyItems, n) }
func JobKind(k string) slog.Attr       { return slog.String(KeyJobKind, k) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
