package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"BloodConnect/internal/model"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/snowflake"
	"BloodConnect/storage/mq"
)

type publishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

// Runner 把分发任务投递到 RabbitMQ，由 worker 消费
type Runner struct {
	publish publishFunc
	nextID  func() (string, error)
}

func NewRunner() *Runner {
	return &Runner{
		publish: mq.PublishJSON,
		nextID:  snowflake.NextMessageID,
	}
}

func (r *Runner) Mode() string { return service.ModeMQ }

// Submit 发布 EmergencyDispatchMessage；每次提交生成新的 MessageID
func (r *Runner) Submit(ctx context.Context, task service.DispatchTask) error {
	messageID, err := r.nextID()
	if err != nil {
		logger.Logger.Error("Failed to generate message ID",
			zap.Int64("request_id", task.RequestID),
			zap.Error(err),
		)
		return errors.DispatchSubmitFailed
	}

	submittedAt := task.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	msg := model.EmergencyDispatchMessage{
		MessageID:   messageID,
		RequestID:   task.RequestID,
		SubmittedAt: submittedAt.UTC().Format(time.RFC3339),
	}

	if err := r.publish(ctx, mq.NotifyExchange, mq.EmergencyDispatchRoute, messageID, msg); err != nil {
		logger.Logger.Error("Failed to publish emergency dispatch message",
			zap.String("message_id", messageID),
			zap.Int64("request_id", task.RequestID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", errors.DispatchSubmitFailed, err)
	}

	logger.Logger.Info("Published emergency dispatch message",
		zap.String("message_id", messageID),
		zap.Int64("request_id", task.RequestID),
	)
	return nil
}
