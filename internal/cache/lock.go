package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"BloodConnect/storage/redis"
)

// 分布式锁：多个 server 实例同时发现 WhatsApp 未初始化时，只让一个去触发网关初始化
const (
	lockPrefix = "lock"
)

// 只删除自己持有的锁，避免过期后误删别人的
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 获取成功时返回持有者 token，用于 Unlock
func TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	fullKey := redis.Key(lockPrefix, key)
	owner := uuid.NewString()

	ok, err := redis.Client().SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return owner, true, nil
}

func Unlock(ctx context.Context, key, owner string) error {
	fullKey := redis.Key(lockPrefix, key)
	return unlockScript.Run(ctx, redis.Client(), []string{fullKey}, owner).Err()
}
