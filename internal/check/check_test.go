package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel/internal/types"
)

func TestAnyOf(t *testing.T) {
	c := AnyOf("abc", "xyz")
	assert.True(t, c.Evaluate([]byte("abc")))
	assert.True(t, c.Evaluate([]byte("xyz")))
	assert.False(t, c.Evaluate([]byte("def")))
}

func TestNoneOf(t *testing.T) {
	c := NoneOf("abc", "xyz")
	assert.False(t, c.Evaluate([]byte("abc")))
	assert.True(t, c.Evaluate([]byte("def")))
}

func TestEvaluate_MissingCaptureFailsWithoutError(t *testing.T) {
	cand := &types.Candidate{
		FullMatch: []byte("abc_018cf028"),
		Captures:  map[string][]byte{},
	}
	tc := types.TargetedCheck{
		Target:    types.CaptureTarget("org_id"),
		Predicate: AnyOf("abc", "xyz"),
	}
	require.False(t, Evaluate(cand, tc))
}

func TestAll_ANDComposition(t *testing.T) {
	cand := &types.Candidate{
		FullMatch: []byte("abc_018cf028"),
		Captures:  map[string][]byte{"org_id": []byte("abc")},
	}
	passing := []types.TargetedCheck{
		{Target: types.CaptureTarget("org_id"), Predicate: AnyOf("abc", "xyz")},
		{Target: types.EntireTarget(), Predicate: NoneOf("nope")},
	}
	assert.True(t, All(cand, passing))

	failing := append(passing, types.TargetedCheck{
		Target:    types.CaptureTarget("org_id"),
		Predicate: AnyOf("only-this-fails"),
	})
	assert.False(t, All(cand, failing))
}
