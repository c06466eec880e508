package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics 通知分发相关指标
type DispatchMetrics struct {
	// 单条通知
	NotificationTotal    metric.Int64Counter
	NotificationDuration metric.Float64Histogram

	// 整次分发
	DispatchTotal      metric.Int64Counter
	DispatchRecipients metric.Int64Histogram
	DispatchDuration   metric.Float64Histogram

	// 异步任务
	TaskFailedTotal metric.Int64Counter
	TaskQueueLength metric.Int64UpDownCounter
}

var (
	// 全局指标实例，未初始化时所有记录方法为空操作
	metrics *DispatchMetrics
	meter   = otel.Meter("bloodconnect")
)

// InitMetrics 在 otel MeterProvider 设置之后调用
func InitMetrics() error {
	m, err := newDispatchMetrics(meter)
	if err != nil {
		return err
	}
	metrics = m
	return nil
}

func newDispatchMetrics(meter metric.Meter) (*DispatchMetrics, error) {
	var err error
	m := &DispatchMetrics{}

	m.NotificationTotal, err = meter.Int64Counter(
		"notification_sent_total",
		metric.WithDescription("Total number of notifications attempted per channel"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	m.NotificationDuration, err = meter.Float64Histogram(
		"notification_send_duration_seconds",
		metric.WithDescription("Time spent sending a single notification"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchTotal, err = meter.Int64Counter(
		"dispatch_total",
		metric.WithDescription("Total number of emergency dispatches"),
		metric.WithUnit("{dispatch}"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchRecipients, err = meter.Int64Histogram(
		"dispatch_recipients",
		metric.WithDescription("Number of matched donors per dispatch"),
		metric.WithUnit("{donor}"),
	)
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram(
		"dispatch_duration_seconds",
		metric.WithDescription("Time spent on a whole dispatch"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.TaskFailedTotal, err = meter.Int64Counter(
		"dispatch_task_failed_total",
		metric.WithDescription("Total number of failed dispatch tasks"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	m.TaskQueueLength, err = meter.Int64UpDownCounter(
		"dispatch_task_queue_length",
		metric.WithDescription("Number of dispatch tasks waiting in the in-process queue"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMetrics 获取全局指标实例，可能为 nil
func GetMetrics() *DispatchMetrics {
	return metrics
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// RecordNotification 记录单条通知结果
func (m *DispatchMetrics) RecordNotification(ctx context.Context, channel string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.NotificationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status(success)),
	))
	m.NotificationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordDispatch 记录一次分发；resolveFailed 表示目录查询失败
func (m *DispatchMetrics) RecordDispatch(ctx context.Context, recipients int, resolveFailed bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if resolveFailed {
		result = "resolve_failed"
	}
	m.DispatchTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.DispatchRecipients.Record(ctx, int64(recipients))
	m.DispatchDuration.Record(ctx, duration.Seconds())
}

// RecordTaskFailed 记录失败的分发任务，mode 为 mq 或 inline
func (m *DispatchMetrics) RecordTaskFailed(ctx context.Context, mode, reason string) {
	if m == nil {
		return
	}
	m.TaskFailedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("reason", reason),
	))
}

// AddQueuedTask delta 为 +1 入队、-1 出队
func (m *DispatchMetrics) AddQueuedTask(ctx context.Context, mode string, delta int64) {
	if m == nil {
		return
	}
	m.TaskQueueLength.Add(ctx, delta, metric.WithAttributes(attribute.String("mode", mode)))
}
