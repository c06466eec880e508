package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/response"
	"BloodConnect/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

func initAuthMiddleware() error {
	// 使用 token 包中共享的生成器
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "BloodConnect API",
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			sub, ok := claims[IdentityKey].(string)
			if !ok {
				return nil
			}
			return sub
		},

		// 只放行管理员的 access token，refresh token 不能直接访问接口
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			if data == nil {
				return false
			}
			claims := jwt.ExtractClaims(ctx, c)
			role, _ := claims[token.RoleKey].(string)
			typ, _ := claims[token.TypeKey].(string)
			return role == token.RoleAdmin && typ == token.TypeAccess
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			def := errors.Unauthorized
			if code == http.StatusForbidden {
				def = errors.Forbidden
			}
			response.Error(ctx, c, def.WithMessage(message))
		},

		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
	})
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	authMiddleware = mw
	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetAdminSubject 从请求上下文中获取管理员用户名
func GetAdminSubject(ctx context.Context, c *app.RequestContext) (string, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	sub, ok := v.(string)
	if !ok {
		return "", false
	}

	return sub, true
}
