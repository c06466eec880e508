package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/queue"
	"BloodConnect/pkg/email"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
	pkgotel "BloodConnect/pkg/otel"
	"BloodConnect/pkg/sms"
	"BloodConnect/pkg/snowflake"
	"BloodConnect/pkg/whatsapp"
	"BloodConnect/storage"
)

const dispatchPrefetch = 4

func main() {

	logger.Init()
	defer logger.Sync()

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
		ServiceName:    config.Cfg.ServiceName + "-worker",
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
		_ = shutdownOTel(otelCtx)
	}()

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize dispatch metrics", zap.Error(err))
	}

	if err := storage.Init(true); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

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

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
		zap.Strings("dispatch_channels", config.Cfg.DispatchChannelList()),
	)

	if err := queue.StartEmergencyDispatchConsumer(ctx, dispatchPrefetch); err != nil && ctx.Err() == nil {
		logger.Logger.Error("Emergency dispatch consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
