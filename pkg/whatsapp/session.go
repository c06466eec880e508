package whatsapp

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/pkg/logger"
)

// ErrNotReady 会话未就绪（未扫码或已掉线），需要管理员重新扫码
var ErrNotReady = errors.New("whatsapp session not ready: scan the QR code in the admin panel to re-authenticate")

// Status 会话状态：uninitialized -> qr pending -> authenticated -> ready
type Status struct {
	QRCode        string `json:"qr_code,omitempty"`
	Initialized   bool   `json:"initialized"`
	Initializing  bool   `json:"initializing"`
	Authenticated bool   `json:"authenticated"`
	Ready         bool   `json:"ready"`
}

// Session 外部自动化客户端的会话能力，由调用方注入
type Session interface {
	Status(ctx context.Context) (Status, error)
	// Initialize 只触发初始化，不等待扫码完成
	Initialize(ctx context.Context) error
	// Send phone 为 E.164 号码，返回网关分配的消息 ID
	Send(ctx context.Context, phone, text string) (string, error)
	Logout(ctx context.Context) error
}

// ChatID 把 E.164 号码转换为客户端使用的会话 ID
func ChatID(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return digits + "@c.us"
}

var (
	defaultSession Session
	sessionOnce    sync.Once
)

// Init 用配置创建默认网关会话
func Init() error {
	sessionOnce.Do(func() {
		cfg := config.Cfg
		defaultSession = NewGatewaySession(GatewayConfig{
			BaseURL:        cfg.WhatsAppGatewayURL,
			Token:          cfg.WhatsAppGatewayToken,
			TimeoutSeconds: cfg.WhatsAppTimeout,
		})

		logger.Logger.Info("WhatsApp gateway session configured",
			zap.String("gateway", cfg.WhatsAppGatewayURL),
		)
	})
	return nil
}

// Default 未初始化时返回 nil，调用方据此跳过 WhatsApp 渠道
func Default() Session {
	return defaultSession
}
