package companylookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "13548146", Normalize("RO 13548146"))
	assert.Equal(t, "13548146", Normalize("ro13548146"))
	assert.Equal(t, "13548146", Normalize("  RO13548146  "))
	assert.Equal(t, "13548146", Normalize("13548146"))
	assert.Equal(t, "", Normalize("abc"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("RO"))
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, input := range []string{"RO 13548146", "13548146", "abc", ""} {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}
