package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"BloodConnect/config"
	"BloodConnect/internal/cache"
	"BloodConnect/internal/model/dto"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/token"
)

func setupAdmin(t *testing.T) {
	t.Helper()
	setupRedis(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	config.Cfg.AdminUsername = "admin"
	config.Cfg.AdminPasswordHash = string(hash)
	config.Cfg.JWTSecret = "test-secret"
	config.Cfg.JWTExpireMinutes = 60
	config.Cfg.JWTRefreshDays = 7
	require.NoError(t, token.Init())
}

func TestAdminLogin(t *testing.T) {
	setupAdmin(t)
	ctx := context.Background()

	resp, err := Admin().Login(ctx, dto.AdminLoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.True(t, cache.ValidateRefreshTokenExists(ctx, "admin", resp.RefreshToken))

	_, err = Admin().Login(ctx, dto.AdminLoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, errors.AdminCredentialsInvalid)

	_, err = Admin().Login(ctx, dto.AdminLoginRequest{Username: "root", Password: "s3cret"})
	assert.ErrorIs(t, err, errors.AdminCredentialsInvalid)
}

func TestAdminRefresh(t *testing.T) {
	setupAdmin(t)
	ctx := context.Background()

	login, err := Admin().Login(ctx, dto.AdminLoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)

	refreshed, err := Admin().Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = Admin().Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, errors.Unauthorized, "access token cannot refresh")

	require.NoError(t, Admin().Logout(ctx, "admin"))
	_, err = Admin().Refresh(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, errors.Unauthorized, "logged out token is revoked")
}
