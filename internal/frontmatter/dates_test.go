package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   any
		want time.Time
		ok   bool
	}{
		{in: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01T10:30", want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01T10:30:00Z", want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01 10:00:00 +01:00", want: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), ok: true},
		{in: "2001-12-14 21:59:43.10 -5", want: time.Date(2001, 12, 15, 2, 59, 43, 100_000_000, time.UTC), ok: true},
		{in: "2001-12-14t21:59:43.10-05:00", want: time.Date(2001, 12, 15, 2, 59, 43, 100_000_000, time.UTC), ok: true},
		{in: "2001-12-14 21:59:43 +0530", want: time.Date(2001, 12, 14, 16, 29, 43, 0, time.UTC), ok: true},
		{in: "2001-12-14 21:59:43.5", want: time.Date(2001, 12, 14, 21, 59, 43, 500_000_000, time.UTC), ok: true},
		{in: "2001-12-14 21:59:43 +25"},
		{in: time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC), want: time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC), ok: true},
		{in: 2021, want: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "not a date"},
		{in: ""},
		{in: nil},
		{in: []any{"2024-01-01"}},
	}

	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		require.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			require.True(t, tc.want.Equal(got), "%v: got %v", tc.in, got)
		}
	}
}

func TestParseDate_FromDecodedFrontMatter(t *testing.T) {
	fields, err := ParseYAML([]byte("date: 2024-02-01\n"))
	require.NoError(t, err)

	got, ok := ParseDate(fields["date"])
	require.True(t, ok)
	require.Equal(t, 2024, got.Year())
	require.Equal(t, time.February, got.Month())
}

func TestParseDate_SpacedTimestampFromDecodedFrontMatter(t *testing.T) {
	fields, err := ParseYAML([]byte("date: 2024-03-01 10:00:00 +01:00\n"))
	require.NoError(t, err)

	got, ok := ParseDate(fields["date"])
	require.True(t, ok)
	require.True(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Equal(got), "got %v", got)
}
