package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	pkgerrors "BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	pkgmq "BloodConnect/pkg/mq"
)

// MessageHandler ctx 携带从消息头恢复的追踪上下文
type MessageHandler func(ctx context.Context, d amqp.Delivery) error

type ConsumeOptions struct {
	Handler       MessageHandler
	Queue         string
	ConsumerTag   string
	PrefetchCount int
}

// Consume 阻塞消费直到 ctx 取消或 channel 关闭。
// 处理成功或 SkipMessageError 时 ack；其他错误首次投递时重新入队，重投仍失败则进入死信队列。
func Consume(ctx context.Context, opts ConsumeOptions) error {
	if conn == nil || conn.IsClosed() {
		return ErrNotConnected
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(opts.Queue, opts.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("consumer channel closed")
			}
			handle(ctx, opts, d)
		}
	}
}

func handle(ctx context.Context, opts ConsumeOptions, d amqp.Delivery) {
	msgCtx, span := pkgmq.StartConsumeSpan(ctx, opts.Queue, d)
	err := opts.Handler(msgCtx, d)
	pkgmq.EndSpan(span, err)

	var skip *pkgerrors.SkipMessageError
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.As(err, &skip):
		logger.Logger.Info("Message skipped",
			zap.String("queue", opts.Queue),
			zap.String("message_id", d.MessageId),
			zap.String("reason", skip.Reason),
		)
		_ = d.Ack(false)
	default:
		logger.Logger.Error("Failed to process message",
			zap.String("queue", opts.Queue),
			zap.String("message_id", d.MessageId),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		_ = d.Nack(false, !d.Redelivered)
	}
}
