package cache

import (
	"context"
	"time"

	"BloodConnect/config"
	"BloodConnect/storage/redis"
)

const (
	tokenPrefix = "token"
)

// SetRefreshToken 存储管理员当前有效的 refresh token，刷新时轮换
// Key: bc:token:refresh:{subject}
func SetRefreshToken(ctx context.Context, subject, refreshToken string) error {
	key := redis.Key(tokenPrefix, "refresh", subject)
	ttl := time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return redis.Client().Set(ctx, key, refreshToken, ttl).Err()
}

func GetRefreshToken(ctx context.Context, subject string) (string, error) {
	key := redis.Key(tokenPrefix, "refresh", subject)
	return redis.Client().Get(ctx, key).Result()
}

// DeleteRefreshToken 登出时删除
func DeleteRefreshToken(ctx context.Context, subject string) error {
	key := redis.Key(tokenPrefix, "refresh", subject)
	return redis.Client().Del(ctx, key).Err()
}

// ValidateRefreshTokenExists 检查 refresh token 是否存在且匹配
func ValidateRefreshTokenExists(ctx context.Context, subject, refreshToken string) bool {
	stored, err := GetRefreshToken(ctx, subject)
	if err != nil {
		return false
	}
	return stored == refreshToken
}
