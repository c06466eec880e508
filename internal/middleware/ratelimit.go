package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/response"
	"BloodConnect/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	KeyPrefix    string
	ErrorMessage string
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 超限后禁止访问的时间（秒），0 表示不额外封禁
	BlockDuration int
	// 已登录管理员按用户名限流，否则按 IP
	ByAdmin bool
}

// DefaultRateLimitConfig 公开接口的通用限流
var DefaultRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   100,
	KeyPrefix:     "rate:general",
	BlockDuration: 0,
	ErrorMessage:  "Too many requests, please try again later",
}

// EmergencyRateLimitConfig 紧急请求会向大量献血者发消息，按 IP 严格限制
var EmergencyRateLimitConfig = RateLimitConfig{
	Window:        600,
	MaxRequests:   5,
	KeyPrefix:     "rate:emergency",
	BlockDuration: 1800,
	ErrorMessage:  "Too many emergency requests from this address, please contact the NSS desk directly",
}

var DonorRegisterRateLimitConfig = RateLimitConfig{
	Window:        3600,
	MaxRequests:   10,
	KeyPrefix:     "rate:register",
	BlockDuration: 0,
	ErrorMessage:  "Too many registrations, please try again later",
}

var AdminLoginRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   5,
	KeyPrefix:     "rate:admin:login",
	BlockDuration: 900,
	ErrorMessage:  "Too many login attempts, please try again later",
}

// BroadcastRateLimitConfig 管理员同步广播
var BroadcastRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   3,
	KeyPrefix:     "rate:admin:broadcast",
	ByAdmin:       true,
	BlockDuration: 0,
	ErrorMessage:  "Broadcast is rate limited, please wait before sending again",
}

// RateLimiter 基于 redis zset 的滑动窗口限流
type RateLimiter struct {
	now    func() time.Time
	config RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{config: cfg, now: time.Now}
}

func (rl *RateLimiter) identifier(ctx context.Context, c *app.RequestContext) string {
	if rl.config.ByAdmin {
		if sub, ok := GetAdminSubject(ctx, c); ok {
			return "admin:" + sub
		}
	}
	return "ip:" + c.ClientIP()
}

// Allow 返回是否放行以及当前窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, id string) (bool, int, error) {
	key := redis.Key(rl.config.KeyPrefix, id)
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := redis.Client().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcard := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcard.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) blockKey(id string) string {
	return redis.Key(rl.config.KeyPrefix, "block", id)
}

func (rl *RateLimiter) Block(ctx context.Context, id string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return redis.Client().Set(ctx, rl.blockKey(id), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, id string) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	n, err := redis.Client().Exists(ctx, rl.blockKey(id)).Result()
	return n > 0, err
}

// RateLimitMiddleware redis 出错时放行，紧急请求不能因为限流组件故障被拒绝
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(cfg)
	tooMany := errors.TooManyRequests
	if cfg.ErrorMessage != "" {
		tooMany = tooMany.WithMessage(cfg.ErrorMessage)
	}

	return func(ctx context.Context, c *app.RequestContext) {
		if !config.Cfg.RateLimitEnabled {
			c.Next(ctx)
			return
		}

		id := limiter.identifier(ctx, c)

		blocked, err := limiter.IsBlocked(ctx, id)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.String("limiter", cfg.KeyPrefix), zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			response.Error(ctx, c, tooMany)
			c.Abort()
			return
		}

		allowed, count, err := limiter.Allow(ctx, id)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.String("limiter", cfg.KeyPrefix), zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(limiter.now().Add(time.Duration(cfg.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, id); err != nil {
				logger.Logger.Error("Failed to block client", zap.Error(err))
			}
			logger.Logger.Warn("Rate limit exceeded",
				zap.String("limiter", cfg.KeyPrefix),
				zap.String("client", id),
			)
			response.Error(ctx, c, tooMany)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

func GeneralRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig)
}

func EmergencyRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(EmergencyRateLimitConfig)
}

func DonorRegisterRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(DonorRegisterRateLimitConfig)
}

func AdminLoginRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(AdminLoginRateLimitConfig)
}

func BroadcastRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(BroadcastRateLimitConfig)
}
