package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "bc:dispatch:42", Key("dispatch", "", "42"))
	assert.Equal(t, "bc", Key())
}
