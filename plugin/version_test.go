package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_CompareOrdersByMajorThenMinorThenPatch(t *testing.T) {
	assert.Equal(t, 0, Version{1, 2, 3}.Compare(Version{1, 2, 3}))
	assert.Equal(t, -1, Version{1, 2, 3}.Compare(Version{2, 0, 0}))
	assert.Equal(t, 1, Version{2, 0, 0}.Compare(Version{1, 9, 9}))
	assert.Equal(t, -1, Version{1, 2, 3}.Compare(Version{1, 3, 0}))
	assert.Equal(t, 1, Version{1, 3, 0}.Compare(Version{1, 2, 9}))
	assert.Equal(t, -1, Version{1, 2, 3}.Compare(Version{1, 2, 4}))
}

func TestVersion_AtLeast(t *testing.T) {
	assert.True(t, Version{1, 2, 0}.AtLeast(Version{1, 2, 0}))
	assert.True(t, Version{1, 3, 0}.AtLeast(Version{1, 2, 0}))
	assert.False(t, Version{1, 1, 0}.AtLeast(Version{1, 2, 0}))
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "1.2.3", Version{1, 2, 3}.String())
}

func TestParseVersion_RoundTrips(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 2, 3}, v)
}

func TestParseVersion_RejectsMalformed(t *testing.T) {
	_, err := ParseVersion("not-a-version")
	assert.Error(t, err)
}
