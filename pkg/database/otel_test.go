package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	p, err := NewOTELPlugin(PluginConfig{MaxSQLLength: 60})
	require.NoError(t, err)

	got := p.sanitize(`SELECT * FROM "donors" WHERE phone = '+919876543210' AND blood_group = 'B+'`)
	assert.NotContains(t, got, "9876543210")
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, `SELECT 1`, p.sanitize(`SELECT 1`))
}
