package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/middleware"
	"BloodConnect/internal/queue"
	"BloodConnect/internal/router"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/email"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
	pkgotel "BloodConnect/pkg/otel"
	"BloodConnect/pkg/sms"
	"BloodConnect/pkg/snowflake"
	"BloodConnect/pkg/token"
	"BloodConnect/pkg/whatsapp"
	"BloodConnect/storage"
)

func main() {
	// 日志部分
	logger.Init()
	defer logger.Sync()

	if err := config.Cfg.Validate(); err != nil {
		logger.Logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOTel, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
		ServiceName:    config.Cfg.ServiceName,
		ServiceVersion: config.Cfg.ServiceVersion,
		Environment:    config.Cfg.Environment,
		OTLPEndpoint:   config.Cfg.OTLPEndpoint,
		SampleRatio:    config.Cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer otelCancel()
		if err := shutdownOTel(otelCtx); err != nil {
			logger.Logger.Warn("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize dispatch metrics", zap.Error(err))
	}
	if err := middleware.InitMetrics(otel.Meter("bloodconnect/http")); err != nil {
		logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
	}

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	// 初始化存储层，记得关闭外部连接；inline 模式不连接 RabbitMQ
	mqMode := config.Cfg.DispatchMode != service.ModeInline
	if err := storage.Init(mqMode); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	initChannels()

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	var inline *service.InlineRunner
	if mqMode {
		service.SetTaskRunner(queue.NewRunner())
	} else {
		inline = service.NewInlineRunner(config.Cfg.InlineWorkers, config.Cfg.InlineQueueSize, nil)
		service.SetTaskRunner(inline)
	}

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.String("dispatch_mode", config.Cfg.DispatchMode),
		zap.Strings("dispatch_channels", config.Cfg.DispatchChannelList()),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	opts := []hzconfig.Option{server.WithHostPorts(addr)}

	var tracing app.HandlerFunc
	if config.Cfg.OTLPEndpoint != "" {
		tracer, mw := middleware.NewServerTracerConfig()
		opts = append(opts, tracer)
		tracing = mw
	}

	h := server.Default(opts...)
	router.Register(h, tracing)

	// 优雅关闭：先停 HTTP，再排空进程内任务
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	if inline != nil {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer drainCancel()
		if err := inline.Shutdown(drainCtx); err != nil {
			logger.Logger.Warn("Inline dispatch tasks did not finish before shutdown", zap.Error(err))
		}
	}

	logger.Logger.Info("Server shutting down gracefully")
}

// initChannels 渠道初始化失败只降级，不阻止启动
func initChannels() {
	if err := sms.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize SMS service", zap.Error(err))
		logger.Logger.Info("SMS service will be disabled, SMS features may not work")
	}

	if err := email.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize email sender", zap.Error(err))
	}

	if err := whatsapp.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize WhatsApp gateway", zap.Error(err))
	}
}
