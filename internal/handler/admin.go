package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"BloodConnect/internal/middleware"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/response"
)

// AdminLogin
// POST /v1/admin/login
func AdminLogin(ctx context.Context, c *app.RequestContext) {
	var req dto.AdminLoginRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Admin().Login(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// RefreshToken
// POST /v1/admin/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshTokenRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	resp, err := service.Admin().Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp)
}

// AdminLogout 撤销 refresh token
// POST /v1/admin/logout
func AdminLogout(ctx context.Context, c *app.RequestContext) {
	sub, ok := middleware.GetAdminSubject(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	if err := service.Admin().Logout(ctx, sub); err != nil {
		logger.Logger.Warn("Failed to revoke refresh token", zap.String("subject", sub), zap.Error(err))
	}
	response.NoContent(ctx, c)
}

// GetChannels 渠道配置探测，只返回是否配置
// GET /v1/admin/channels
func GetChannels(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, service.Channels())
}
