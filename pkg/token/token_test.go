package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BloodConnect/config"
	"BloodConnect/pkg/errors"
)

func setup(t *testing.T) {
	t.Helper()
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 60
	config.Cfg.JWTRefreshDays = 7
	require.NoError(t, Init())
}

func TestGenerateAndValidateRefresh(t *testing.T) {
	setup(t)

	pair, err := GenerateTokenPair("admin")
	require.NoError(t, err)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	sub, err := ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	setup(t)

	pair, err := GenerateTokenPair("admin")
	require.NoError(t, err)

	_, err = ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, errors.ErrInvalidTokenType)
}

func TestValidateRefreshToken_Garbage(t *testing.T) {
	setup(t)

	_, err := ValidateRefreshToken("not-a-jwt")
	assert.Error(t, err)
}
