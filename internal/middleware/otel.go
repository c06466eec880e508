package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// httpMetrics 按路由模板聚合，:id 不进入标签
type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

var serverMetrics *httpMetrics

// InitMetrics 在 MeterProvider 设置之后调用；未调用时中间件只透传
func InitMetrics(meter metric.Meter) error {
	m := &httpMetrics{}
	var err error

	if m.requests, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.duration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err != nil {
		return err
	}

	if m.inflight, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("In-flight HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	serverMetrics = m
	return nil
}

// OpenTelemetryMiddleware 记录请求指标，并在 server tracer 创建的 span 上补充路由和管理员身份
func OpenTelemetryMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		m := serverMetrics
		if m == nil {
			c.Next(ctx)
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := string(c.Method())

		start := time.Now()
		m.inflight.Add(ctx, 1, metric.WithAttributes(semconv.HTTPRoute(route)))
		defer m.inflight.Add(ctx, -1, metric.WithAttributes(semconv.HTTPRoute(route)))

		c.Next(ctx)

		status := c.Response.StatusCode()
		attrs := metric.WithAttributes(
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			attribute.String("http.status_class", strconv.Itoa(status/100)+"xx"),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(semconv.HTTPRoute(route))
		if sub, ok := GetAdminSubject(ctx, c); ok {
			span.SetAttributes(attribute.String("enduser.id", sub))
		}
		if status == 429 {
			span.AddEvent("rate_limited")
		}
	}
}

// NewServerTracerConfig hertz server 的 tracer 选项和对应的 span 中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
