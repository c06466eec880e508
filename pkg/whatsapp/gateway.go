package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"BloodConnect/pkg/logger"
)

// GatewayConfig HTTP 网关配置
type GatewayConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
	// StatusTTL 状态缓存时间，广播时避免每个收件人都查询一次
	StatusTTL time.Duration
}

type gatewayError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type sendRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// GatewaySession 通过 HTTP 驱动外部 WhatsApp 自动化客户端（扫码配对与会话持久化由网关负责）
type GatewaySession struct {
	client    *resty.Client
	inflight  singleflight.Group
	mu        sync.Mutex
	cached    Status
	cachedAt  time.Time
	statusTTL time.Duration
}

func NewGatewaySession(cfg GatewayConfig) *GatewaySession {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ttl := cfg.StatusTTL
	if ttl == 0 {
		ttl = 2 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &GatewaySession{
		client:    client,
		statusTTL: ttl,
	}
}

// Status 缓存失效时并发调用合并为一次 GET /status
func (s *GatewaySession) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	if s.statusTTL > 0 && !s.cachedAt.IsZero() && time.Since(s.cachedAt) < s.statusTTL {
		st := s.cached
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	v, err, _ := s.inflight.Do("status", func() (interface{}, error) {
		// 合并后的请求不随某一个调用方取消，由客户端超时兜底
		return s.fetchStatus(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Status{}, err
	}
	return v.(Status), nil
}

func (s *GatewaySession) fetchStatus(ctx context.Context) (Status, error) {
	var st Status
	var gwErr gatewayError
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&st).
		SetError(&gwErr).
		Get("/status")
	if err != nil {
		return Status{}, fmt.Errorf("whatsapp gateway status: %w", err)
	}
	if resp.IsError() {
		return Status{}, fmt.Errorf("whatsapp gateway status: HTTP %d: %s", resp.StatusCode(), gwErr.text())
	}

	s.mu.Lock()
	s.cached = st
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return st, nil
}

func (s *GatewaySession) Initialize(ctx context.Context) error {
	s.invalidate()

	var gwErr gatewayError
	resp, err := s.client.R().
		SetContext(ctx).
		SetError(&gwErr).
		Post("/initialize")
	if err != nil {
		return fmt.Errorf("whatsapp gateway initialize: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp gateway initialize: HTTP %d: %s", resp.StatusCode(), gwErr.text())
	}

	logger.Logger.Info("WhatsApp initialization requested")
	return nil
}

func (s *GatewaySession) Send(ctx context.Context, phone, text string) (string, error) {
	var out sendResponse
	var gwErr gatewayError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(sendRequest{ChatID: ChatID(phone), Message: text}).
		SetResult(&out).
		SetError(&gwErr).
		Post("/send")
	if err != nil {
		return "", fmt.Errorf("whatsapp gateway send: %w", err)
	}

	// 503 表示网关侧会话未就绪
	if resp.StatusCode() == 503 {
		s.invalidate()
		return "", ErrNotReady
	}
	if resp.IsError() {
		return "", fmt.Errorf("whatsapp gateway send: HTTP %d: %s", resp.StatusCode(), gwErr.text())
	}

	return out.ID, nil
}

func (s *GatewaySession) Logout(ctx context.Context) error {
	s.invalidate()

	var gwErr gatewayError
	resp, err := s.client.R().
		SetContext(ctx).
		SetError(&gwErr).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("whatsapp gateway logout: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp gateway logout: HTTP %d: %s", resp.StatusCode(), gwErr.text())
	}

	logger.Logger.Info("WhatsApp session logged out", zap.Int("status", resp.StatusCode()))
	return nil
}

func (s *GatewaySession) invalidate() {
	s.mu.Lock()
	s.cachedAt = time.Time{}
	s.mu.Unlock()
}

func (e gatewayError) text() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return "unknown error"
}
