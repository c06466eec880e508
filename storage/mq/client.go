package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/pkg/logger"
)

// 通知相关拓扑
const (
	NotifyExchange          = "bloodconnect.notify"
	EmergencyDispatchQueue  = "notify.emergency.dispatch"
	EmergencyDispatchRoute  = "notify.emergency.dispatch"
	EmergencyDeadLetterExch = "bloodconnect.notify.dlx"
	EmergencyDeadLetterQ    = "notify.emergency.dispatch.dead"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			logger.Logger.Error("Failed to connect to RabbitMQ", zap.Error(connErr))
			return
		}

		if connErr = declareTopology(); connErr != nil {
			logger.Logger.Error("Failed to declare RabbitMQ topology", zap.Error(connErr))
			return
		}

		logger.Logger.Info("RabbitMQ initialized successfully",
			zap.String("addr", config.Cfg.RabbitMQAddr),
		)
	})

	return connErr
}

func Connection() *amqp.Connection {
	return conn
}

// declareTopology 幂等声明交换机、队列和死信队列
func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(NotifyExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", NotifyExchange, err)
	}
	if err := ch.ExchangeDeclare(EmergencyDeadLetterExch, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", EmergencyDeadLetterExch, err)
	}

	if _, err := ch.QueueDeclare(EmergencyDeadLetterQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", EmergencyDeadLetterQ, err)
	}
	if err := ch.QueueBind(EmergencyDeadLetterQ, "", EmergencyDeadLetterExch, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", EmergencyDeadLetterQ, err)
	}

	if _, err := ch.QueueDeclare(EmergencyDispatchQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": EmergencyDeadLetterExch,
	}); err != nil {
		return fmt.Errorf("declare queue %s: %w", EmergencyDispatchQueue, err)
	}
	if err := ch.QueueBind(EmergencyDispatchQueue, EmergencyDispatchRoute, NotifyExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", EmergencyDispatchQueue, err)
	}

	return nil
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
