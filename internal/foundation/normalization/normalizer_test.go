package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type direction string

const (
	up   direction = "up"
	down direction = "down"
)

func newDirections() *Normalizer[direction] {
	return NewNormalizer(map[string]direction{
		"up":         up,
		"ascending":  up,
		"down":       down,
		"Descending": down,
	}, up)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newDirections()

	require.Equal(t, down, n.Normalize("  DESCENDING "))
	require.Equal(t, up, n.Normalize("ascending"))
	require.Equal(t, up, n.Normalize("sideways"), "unknown values fall back to the default")
}

func TestNormalizer_Lookup(t *testing.T) {
	n := newDirections()

	v, ok := n.Lookup("Down")
	require.True(t, ok)
	require.Equal(t, down, v)

	_, ok = n.Lookup("")
	require.False(t, ok)
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newDirections()

	_, err := n.NormalizeWithError("sideways")
	require.Error(t, err)
	require.Contains(t, err.Error(), "descending")
	require.Equal(t, []string{"ascending", "descending", "down", "up"}, n.ValidKeys())
}
