package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/normalization"
)

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

var sortOrderNormalizer = normalization.NewNormalizer(map[string]string{
	"asc":        "asc",
	"ascending":  "asc",
	"desc":       "desc",
	"descending": "desc",
}, "")

// NormalizeConfig canonicalizes enumerations and bounds before defaults are
// applied. It mutates c in place and reports every coercion.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, errors.New("config nil")
	}
	res := &NormalizationResult{}
	normalizeMarkup(&c.Markup, res)
	normalizeLogging(&c.Logging, res)
	normalizeMetrics(&c.Metrics, res)
	return res, nil
}

func normalizeMarkup(m *MarkupConfig, res *NormalizationResult) {
	m.In = strings.TrimSpace(m.In)
	m.Out = strings.TrimSpace(m.Out)

	seen := make(map[string]bool, len(m.IncludePaths))
	includes := make([]string, 0, len(m.IncludePaths))
	for _, p := range m.IncludePaths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		includes = append(includes, p)
	}
	if len(includes) != len(m.IncludePaths) {
		res.Warnings = append(res.Warnings, "removed empty or duplicate markup.include_paths entries")
	}
	m.IncludePaths = includes

	for i := range m.Collections {
		c := &m.Collections[i]
		field := fmt.Sprintf("markup.collections[%d]", i)

		name := strings.Trim(strings.TrimSpace(c.Name), "/")
		if name != "" {
			name = path.Clean(name)
		}
		if name != c.Name {
			res.Warnings = append(res.Warnings, warnChanged(field+".name", c.Name, name))
			c.Name = name
		}
		if c.Paginate < 0 {
			res.Warnings = append(res.Warnings, warnChanged(field+".paginate", c.Paginate, 0))
			c.Paginate = 0
		}
		if c.Sort != nil {
			c.Sort.By = strings.TrimSpace(c.Sort.By)
			if raw := c.Sort.Order; strings.TrimSpace(raw) != "" {
				order, ok := sortOrderNormalizer.Lookup(raw)
				switch {
				case !ok:
					res.Warnings = append(res.Warnings, warnUnknown(field+".sort.order", raw, "the sort field's default"))
					c.Sort.Order = ""
				case order != raw:
					res.Warnings = append(res.Warnings, warnChanged(field+".sort.order", raw, order))
					c.Sort.Order = order
				}
			}
		}
	}

	if m.Options.Concurrency < 0 {
		res.Warnings = append(res.Warnings, warnChanged("markup.options.concurrency", m.Options.Concurrency, 0))
		m.Options.Concurrency = 0
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if raw := string(l.Level); strings.TrimSpace(raw) != "" {
		lvl, ok := logLevelNormalizer.Lookup(raw)
		switch {
		case !ok:
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", raw, string(LogLevelInfo)))
			l.Level = LogLevelInfo
		case lvl != l.Level:
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	}
	if raw := string(l.Format); strings.TrimSpace(raw) != "" {
		f, ok := logFormatNormalizer.Lookup(raw)
		switch {
		case !ok:
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", raw, string(LogFormatText)))
			l.Format = LogFormatText
		case f != l.Format:
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	}
}

func normalizeMetrics(m *MetricsConfig, res *NormalizationResult) {
	m.Address = strings.TrimSpace(m.Address)
	if p := strings.TrimSpace(m.Path); p != "" && !strings.HasPrefix(p, "/") {
		res.Warnings = append(res.Warnings, warnChanged("metrics.path", m.Path, "/"+p))
		m.Path = "/" + p
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
