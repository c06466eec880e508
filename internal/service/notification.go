package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/notify"
	"BloodConnect/internal/repository"
	"BloodConnect/pkg/email"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
	"BloodConnect/pkg/sms"
	"BloodConnect/pkg/whatsapp"
	"BloodConnect/storage/database"
)

// dispatcher notify.Dispatcher 的最小接口，便于测试替换
type dispatcher interface {
	Dispatch(ctx context.Context, event notify.EmergencyEvent) (*notify.Summary, error)
}

var (
	notificationService *NotificationService
	notificationOnce    sync.Once
)

// Notification 按 DISPATCH_CHANNELS 组装分发器；未初始化的渠道客户端会被跳过
func Notification() *NotificationService {
	notificationOnce.Do(func() {
		cfg := config.Cfg
		adapters := BuildAdapters(cfg.DispatchChannelList(), ChannelClients{
			SMS:      sms.GetClient(),
			Email:    email.Default(),
			WhatsApp: whatsapp.Default(),
		}, cfg.DefaultCountryCode)

		opts := []notify.Option{
			notify.WithConcurrency(cfg.DispatchConcurrency),
		}
		if m := metrics.GetMetrics(); m != nil {
			opts = append(opts, notify.WithRecorder(m))
		}

		resolver := notify.NewResolver(repository.NewDonorRepository(database.DB()))
		notificationService = NewNotificationService(notify.NewDispatcher(resolver, adapters, opts...))
	})
	return notificationService
}

type NotificationService struct {
	dispatcher dispatcher
}

func NewNotificationService(d dispatcher) *NotificationService {
	return &NotificationService{dispatcher: d}
}

// ChannelClients 各渠道的底层客户端，nil 表示未配置
type ChannelClients struct {
	SMS      sms.Client
	Email    email.Sender
	WhatsApp whatsapp.Session
}

// BuildAdapters 按配置顺序创建渠道适配器
func BuildAdapters(channels []string, clients ChannelClients, countryCode string) []notify.Adapter {
	var adapters []notify.Adapter
	for _, ch := range channels {
		switch notify.Channel(ch) {
		case notify.ChannelWhatsApp:
			if clients.WhatsApp == nil {
				logger.Logger.Warn("WhatsApp channel configured but session is not initialized")
				continue
			}
			adapters = append(adapters, notify.NewWhatsAppAdapter(clients.WhatsApp, countryCode))
		case notify.ChannelSMS:
			if clients.SMS == nil {
				logger.Logger.Warn("SMS channel configured but SMS client is not initialized")
				continue
			}
			adapters = append(adapters, notify.NewSMSAdapter(clients.SMS, countryCode))
		case notify.ChannelEmail:
			if clients.Email == nil {
				logger.Logger.Warn("Email channel configured but SMTP sender is not initialized")
				continue
			}
			adapters = append(adapters, notify.NewEmailAdapter(clients.Email))
		default:
			logger.Logger.Warn("Unknown dispatch channel ignored", zap.String("channel", ch))
		}
	}
	return adapters
}

func (s *NotificationService) Dispatch(ctx context.Context, event notify.EmergencyEvent) (*notify.Summary, error) {
	return s.dispatcher.Dispatch(ctx, event)
}

// Broadcast 管理员同步广播，直接返回汇总
func (s *NotificationService) Broadcast(ctx context.Context, req dto.BroadcastRequest) (*notify.Summary, error) {
	event := notify.EmergencyEvent{
		BloodGroup:    model.BloodGroup(strings.ToUpper(strings.TrimSpace(req.BloodGroup))),
		District:      strings.TrimSpace(req.District),
		Urgency:       model.Urgency(strings.ToLower(strings.TrimSpace(req.Urgency))),
		Description:   strings.TrimSpace(req.Description),
		ContactName:   strings.TrimSpace(req.ContactName),
		ContactPhone:  strings.TrimSpace(req.ContactPhone),
		PatientName:   strings.TrimSpace(req.PatientName),
		HospitalName:  strings.TrimSpace(req.HospitalName),
		RequiredUnits: strings.TrimSpace(req.RequiredUnits),
	}

	summary, err := s.dispatcher.Dispatch(ctx, event)
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Admin broadcast finished",
		zap.String("blood_group", string(event.BloodGroup)),
		zap.String("district", event.District),
		zap.Int("recipients", summary.Recipients),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailedCount),
	)
	return summary, nil
}

// Channels 只返回各渠道是否已配置
func Channels() dto.ChannelConfigResponse {
	cfg := config.Cfg
	return dto.ChannelConfigResponse{
		SMSProvider:          cfg.SMSProvider,
		DispatchChannels:     cfg.DispatchChannelList(),
		TwilioAccountSID:     cfg.TwilioAccountSID != "",
		TwilioAuthToken:      cfg.TwilioAuthToken != "",
		TwilioPhoneNumber:    cfg.TwilioPhoneNumber != "",
		SMTPConfigured:       cfg.SMTPUsername != "" && cfg.SMTPPassword != "",
		WhatsAppGateway:      cfg.WhatsAppGatewayURL != "",
		AdminEmailConfigured: cfg.AdminEmail != "",
	}
}
