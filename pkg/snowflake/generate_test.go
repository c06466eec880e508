package snowflake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	require.NoError(t, Init(1, 1))

	a, err := NextID()
	require.NoError(t, err)
	b, err := NextID()
	require.NoError(t, err)
	assert.Greater(t, b, a)

	msg, err := NextMessageID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "msg-"))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("1234")
	assert.True(t, ok)
	assert.Equal(t, "1234", FormatID(id))

	_, ok = ParseID("abc")
	assert.False(t, ok)
	_, ok = ParseID("-1")
	assert.False(t, ok)
}
