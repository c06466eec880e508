package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"BloodConnect/internal/cache"
	"BloodConnect/internal/model"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
	"BloodConnect/storage/mq"
)

const (
	processingTTL = 30 * time.Minute
	processedTTL  = 48 * time.Hour
)

// Processor 处理一条紧急请求的分发
type Processor func(ctx context.Context, requestID int64) error

// StartEmergencyDispatchConsumer 阻塞消费直到 ctx 取消
func StartEmergencyDispatchConsumer(ctx context.Context, prefetch int) error {
	process := func(ctx context.Context, requestID int64) error {
		_, err := service.Emergency().ProcessDispatch(ctx, requestID)
		return err
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.EmergencyDispatchQueue,
		ConsumerTag:   "emergency_dispatch_consumer",
		PrefetchCount: prefetch,
		Handler:       HandleEmergencyDispatch(process),
	})
}

// HandleEmergencyDispatch 用 SETNX 标记跳过 broker 重复投递。
// 这是消息级去重：同一事件重新提交会生成新的 MessageID 并再次发送。
func HandleEmergencyDispatch(process Processor) mq.MessageHandler {
	return func(ctx context.Context, d amqp.Delivery) error {
		var msg model.EmergencyDispatchMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal emergency dispatch message: %w", err)
		}
		if msg.MessageID == "" {
			msg.MessageID = d.MessageId
		}

		log := logger.Logger.With(
			zap.String("message_id", msg.MessageID),
			zap.Int64("request_id", msg.RequestID),
		)

		if msg.MessageID != "" {
			first, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, processingTTL)
			if err != nil {
				// redis 不可用时继续处理，可能重复发送
				log.Warn("Failed to check message processed status", zap.Error(err))
			} else if !first {
				return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
			}
		}

		log.Info("Processing emergency dispatch")

		if err := process(ctx, msg.RequestID); err != nil {
			var def errors.Definition
			if stderrors.As(err, &def) {
				// 业务错误重试也不会成功
				metrics.GetMetrics().RecordTaskFailed(ctx, service.ModeMQ, def.Code)
				markProcessed(ctx, log, msg.MessageID)
				return &errors.SkipMessageError{Reason: def.Code}
			}

			metrics.GetMetrics().RecordTaskFailed(ctx, service.ModeMQ, "internal")
			if msg.MessageID != "" {
				if unmarkErr := cache.UnmarkMessageProcessing(ctx, msg.MessageID); unmarkErr != nil {
					log.Warn("Failed to unmark message", zap.Error(unmarkErr))
				}
			}
			return fmt.Errorf("failed to process emergency dispatch: %w", err)
		}

		markProcessed(ctx, log, msg.MessageID)
		return nil
	}
}

func markProcessed(ctx context.Context, log *zap.Logger, messageID string) {
	if messageID == "" {
		return
	}
	if err := cache.MarkMessageProcessed(ctx, messageID, processedTTL); err != nil {
		log.Warn("Failed to mark message as processed", zap.Error(err))
	}
}
