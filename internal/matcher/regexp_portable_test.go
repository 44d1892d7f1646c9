//go:build portable

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel/internal/types"
)

func TestRegexp2Backend_FindsNamedCaptures(t *testing.T) {
	backend, err := New([]Pattern{
		{ID: types.PatternId(0), Source: `sk-(?<secret>[a-zA-Z0-9]{8})`},
	})
	require.NoError(t, err)
	defer backend.Close()

	matches, err := backend.Scan([]byte("token=sk-abcd1234 trailing"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "abcd1234", string(matches[0].Captures["secret"]))
}

func TestRegexp2Backend_FindsMultipleNonOverlappingMatches(t *testing.T) {
	backend, err := New([]Pattern{
		{ID: types.PatternId(0), Source: `sk-[a-z0-9]{6}`},
	})
	require.NoError(t, err)
	defer backend.Close()

	matches, err := backend.Scan([]byte("sk-abc123 and sk-def456"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
}
