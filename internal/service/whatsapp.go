package service

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/cache"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/whatsapp"
	"BloodConnect/utils"
)

const (
	whatsappInitLock    = "whatsapp:init"
	whatsappInitTimeout = time.Minute
)

var (
	whatsappService *WhatsAppService
	whatsappOnce    sync.Once
)

func WhatsApp() *WhatsAppService {
	whatsappOnce.Do(func() {
		whatsappService = NewWhatsAppService(whatsapp.Default())
	})
	return whatsappService
}

// WhatsAppService 管理后台使用的会话操作
type WhatsAppService struct {
	session whatsapp.Session
	// 多实例部署时用 redis 锁避免同时触发初始化
	tryLock func(ctx context.Context) (release func(), ok bool)
}

func NewWhatsAppService(session whatsapp.Session) *WhatsAppService {
	return &WhatsAppService{session: session, tryLock: redisInitLock}
}

func redisInitLock(ctx context.Context) (func(), bool) {
	owner, ok, err := cache.TryLock(ctx, whatsappInitLock, whatsappInitTimeout)
	if err != nil {
		// redis 不可用时退化为本实例直接初始化
		logger.Logger.Warn("Failed to acquire WhatsApp init lock", zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return func() {
		if err := cache.Unlock(context.Background(), whatsappInitLock, owner); err != nil {
			logger.Logger.Warn("Failed to release WhatsApp init lock", zap.Error(err))
		}
	}, true
}

func (s *WhatsAppService) ready() error {
	if s.session == nil {
		return errors.WhatsAppNotReady
	}
	return nil
}

// Status 查询会话状态；未初始化时在后台触发初始化，不等待
func (s *WhatsAppService) Status(ctx context.Context) (whatsapp.Status, error) {
	if err := s.ready(); err != nil {
		return whatsapp.Status{}, err
	}

	st, err := s.session.Status(ctx)
	if err != nil {
		logger.Logger.Warn("Failed to query WhatsApp status", zap.Error(err))
		return whatsapp.Status{}, errors.WhatsAppFailed
	}

	if !st.Initialized && !st.Initializing {
		s.initInBackground()
		st.Initializing = true
	}
	return st, nil
}

func (s *WhatsAppService) initInBackground() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), whatsappInitTimeout)
		defer cancel()

		release, ok := s.tryLock(ctx)
		if !ok {
			return
		}
		defer release()

		if err := s.session.Initialize(ctx); err != nil {
			logger.Logger.Error("Background WhatsApp initialization failed", zap.Error(err))
			return
		}
		logger.Logger.Info("WhatsApp initialization triggered")
	}()
}

// Initialize 管理员手动触发初始化，扫码在网关侧完成
func (s *WhatsAppService) Initialize(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.session.Initialize(ctx); err != nil {
		logger.Logger.Error("WhatsApp initialization failed", zap.Error(err))
		return errors.WhatsAppFailed
	}
	return nil
}

func (s *WhatsAppService) Logout(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.session.Logout(ctx); err != nil {
		logger.Logger.Error("WhatsApp logout failed", zap.Error(err))
		return errors.WhatsAppFailed
	}
	logger.Logger.Info("WhatsApp session logged out")
	return nil
}

// Send 单条发送；会话未就绪返回 WhatsAppNotReady
func (s *WhatsAppService) Send(ctx context.Context, phone, message string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	cc := config.Cfg.DefaultCountryCode
	if !utils.ValidatePhone(phone, cc) {
		return "", errors.InvalidPhone
	}
	to := utils.NormalizePhone(phone, cc)

	st, err := s.session.Status(ctx)
	if err != nil {
		logger.Logger.Warn("Failed to query WhatsApp status", zap.Error(err))
		return "", errors.WhatsAppFailed
	}
	if !st.Ready {
		return "", errors.WhatsAppNotReady
	}

	id, err := s.session.Send(ctx, to, message)
	if err != nil {
		if stderrors.Is(err, whatsapp.ErrNotReady) {
			return "", errors.WhatsAppNotReady
		}
		logger.Logger.Error("WhatsApp send failed",
			zap.String("to", utils.MaskPhone(to)),
			zap.Error(err),
		)
		return "", errors.WhatsAppFailed
	}

	logger.Logger.Info("WhatsApp message sent",
		zap.String("to", utils.MaskPhone(to)),
		zap.String("message_id", id),
	)
	return id, nil
}
