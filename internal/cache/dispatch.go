package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"BloodConnect/internal/notify"
	"BloodConnect/pkg/errors"
	"BloodConnect/storage/redis"
)

const (
	dispatchSummaryPrefix = "dispatch:summary"

	defaultSummaryTTL = 24 * time.Hour
)

// SetDispatchSummary 缓存某个紧急请求最近一次的分发汇总，供前端轮询
func SetDispatchSummary(ctx context.Context, requestID int64, summary *notify.Summary, ttl time.Duration) error {
	if summary == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch summary: %w", err)
	}

	key := redis.Key(dispatchSummaryPrefix, strconv.FormatInt(requestID, 10))
	return redis.Client().Set(ctx, key, data, ttl).Err()
}

// GetDispatchSummary 汇总尚未写入时返回 DispatchPending
func GetDispatchSummary(ctx context.Context, requestID int64) (*notify.Summary, error) {
	key := redis.Key(dispatchSummaryPrefix, strconv.FormatInt(requestID, 10))

	data, err := redis.Client().Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.DispatchPending
		}
		return nil, fmt.Errorf("failed to get dispatch summary: %w", err)
	}

	var summary notify.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch summary: %w", err)
	}
	return &summary, nil
}
