package sms

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/pkg/logger"
)

// Client SMS 客户端接口
type Client interface {
	// Send 发送单条短信，to 必须已归一化为 E.164，返回服务商分配的消息 ID
	Send(ctx context.Context, to, body string) (string, error)
	// Provider 服务商名称，用于日志与指标
	Provider() string
}

var (
	smsClient Client
	smsOnce   sync.Once
	smsErr    error
)

// Init 初始化 SMS 客户端
func Init() error {
	smsOnce.Do(func() {
		cfg := config.Cfg

		var (
			client Client
			err    error
		)
		switch cfg.SMSProvider {
		case "twilio":
			var c *TwilioClient
			if c, err = NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber); err == nil {
				client = c
			}
		case "aliyun":
			var c *AliyunClient
			if c, err = NewAliyunClient(cfg.SMSSignName, cfg.SMSTemplateCode); err == nil {
				client = c
			}
		case "mock":
			client = NewMockClient()
		default:
			err = fmt.Errorf("unsupported SMS provider: %s", cfg.SMSProvider)
		}

		// 失败时保持 smsClient 为 nil 接口
		smsClient, smsErr = client, err

		if smsErr != nil {
			logger.Logger.Error("Failed to initialize SMS client", zap.Error(smsErr))
			return
		}

		logger.Logger.Info("SMS client initialized successfully",
			zap.String("provider", cfg.SMSProvider),
		)
	})

	return smsErr
}

// GetClient 未初始化时返回 nil，调用方据此跳过短信渠道
func GetClient() Client {
	return smsClient
}
