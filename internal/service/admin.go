package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"BloodConnect/config"
	"BloodConnect/internal/cache"
	"BloodConnect/internal/model/dto"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/token"
)

var (
	adminService *AdminService
	adminOnce    sync.Once
)

func Admin() *AdminService {
	adminOnce.Do(func() {
		adminService = &AdminService{}
	})
	return adminService
}

// AdminService 单个配置管理员，密码只比对 bcrypt 哈希
type AdminService struct{}

func (s *AdminService) Login(ctx context.Context, req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	cfg := config.Cfg

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.AdminUsername)) == 1
	// 用户名不对也做一次哈希比对，避免响应时间泄露用户名
	pwErr := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(req.Password))
	if !userOK || pwErr != nil {
		logger.Logger.Warn("Admin login rejected", zap.String("username", req.Username))
		return nil, errors.AdminCredentialsInvalid
	}

	return s.issue(ctx, cfg.AdminUsername)
}

// Refresh 校验 refresh token 并轮换
func (s *AdminService) Refresh(ctx context.Context, refreshToken string) (*dto.AdminLoginResponse, error) {
	subject, err := token.ValidateRefreshToken(refreshToken)
	if err != nil {
		logger.Logger.Info("Refresh token rejected", zap.Error(err))
		return nil, errors.Unauthorized
	}
	if !cache.ValidateRefreshTokenExists(ctx, subject, refreshToken) {
		return nil, errors.Unauthorized
	}

	return s.issue(ctx, subject)
}

func (s *AdminService) Logout(ctx context.Context, subject string) error {
	return cache.DeleteRefreshToken(ctx, subject)
}

func (s *AdminService) issue(ctx context.Context, subject string) (*dto.AdminLoginResponse, error) {
	pair, err := token.GenerateTokenPair(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, subject, pair.RefreshToken); err != nil {
		logger.Logger.Warn("Failed to store refresh token in Redis",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}

	return &dto.AdminLoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
