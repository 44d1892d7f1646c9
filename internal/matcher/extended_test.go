package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripExtendedMode_NoExtendedFlagIsUnchanged(t *testing.T) {
	assert.Equal(t, `\d+`, stripExtendedMode(`\d+`))
}

func TestStripExtendedMode_RemovesWhitespaceAndComments(t *testing.T) {
	got := stripExtendedMode(`(?x) sk- [a-z]+ (?# the secret body )`)
	assert.Equal(t, `sk-[a-z]+`, got)
}

func TestStripExtendedMode_PreservesEscapedWhitespace(t *testing.T) {
	got := stripExtendedMode(`(?x)a\ b`)
	assert.Equal(t, `a\ b`, got)
}
