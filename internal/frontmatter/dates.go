package frontmatter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the minute-precision layout used for defaulted item dates.
const DateLayout = "2006-01-02T15:04"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
}

// yamlTimestamp matches the YAML 1.1 timestamp forms Go layouts cannot
// express: a space or lowercase t separator and a one-digit or colonless zone.
var yamlTimestamp = regexp.MustCompile(
	`^(\d{4}-\d{1,2}-\d{1,2})(?:[Tt]|[ \t]+)(\d{1,2}:\d{2}:\d{2}(?:\.\d+)?)[ \t]*(Z|[+-]\d{1,2}(?::?\d{2})?)?$`)

// ParseDate interprets a front matter value as a calendar date.
// yaml.v3 keeps timestamp-like scalars as strings when decoding into any.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return parseYAMLTimestamp(s)
	case int:
		// Bare years.
		if t > 0 && t < 10000 {
			return time.Date(t, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseYAMLTimestamp(s string) (time.Time, bool) {
	m := yamlTimestamp.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	loc, ok := zoneOf(m[3])
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-1-2 15:04:05", m[1]+" "+m[2], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// zoneOf parses Z, ±H, ±HH, ±HHMM or ±HH:MM.
func zoneOf(z string) (*time.Location, bool) {
	if z == "" || z == "Z" {
		return time.UTC, true
	}
	sign, digits := 1, z[1:]
	if z[0] == '-' {
		sign = -1
	}
	hh, mm, found := strings.Cut(digits, ":")
	if !found {
		mm = "0"
		if len(digits) > 2 {
			hh, mm = digits[:len(digits)-2], digits[len(digits)-2:]
		}
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h > 23 {
		return nil, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return nil, false
	}
	return time.FixedZone("", sign*(h*3600+m*60)), true
}
