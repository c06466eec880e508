package notify

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"BloodConnect/pkg/email"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/sms"
	"BloodConnect/pkg/whatsapp"
	"BloodConnect/utils"
)

// Adapter 单个渠道的发送能力，各实现之间不共享状态
type Adapter interface {
	Channel() Channel
	// Destination 返回该献血者在本渠道的地址，空串表示跳过
	Destination(d DonorRecord) string
	Send(ctx context.Context, destination string, msg Message) (string, error)
}

type EmailAdapter struct {
	sender email.Sender
}

func NewEmailAdapter(sender email.Sender) *EmailAdapter {
	return &EmailAdapter{sender: sender}
}

func (a *EmailAdapter) Channel() Channel { return ChannelEmail }

func (a *EmailAdapter) Destination(d DonorRecord) string {
	return strings.TrimSpace(d.Email)
}

func (a *EmailAdapter) Send(ctx context.Context, destination string, msg Message) (string, error) {
	return a.sender.Send(ctx, email.Mail{
		To:           []string{destination},
		Subject:      msg.Subject,
		Text:         msg.Text,
		HTML:         msg.HTML,
		HighPriority: true,
	})
}

type SMSAdapter struct {
	client      sms.Client
	countryCode string
}

func NewSMSAdapter(client sms.Client, countryCode string) *SMSAdapter {
	return &SMSAdapter{client: client, countryCode: countryCode}
}

func (a *SMSAdapter) Channel() Channel { return ChannelSMS }

func (a *SMSAdapter) Destination(d DonorRecord) string {
	return utils.NormalizePhone(d.Phone, a.countryCode)
}

func (a *SMSAdapter) Send(ctx context.Context, destination string, msg Message) (string, error) {
	return a.client.Send(ctx, utils.NormalizePhone(destination, a.countryCode), msg.Text)
}

// WhatsAppAdapter 会话未就绪时在后台触发一次初始化并直接失败，不排队
type WhatsAppAdapter struct {
	session      whatsapp.Session
	countryCode  string
	initializing atomic.Bool
	initTimeout  time.Duration
}

func NewWhatsAppAdapter(session whatsapp.Session, countryCode string) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		session:     session,
		countryCode: countryCode,
		initTimeout: time.Minute,
	}
}

func (a *WhatsAppAdapter) Channel() Channel { return ChannelWhatsApp }

// Destination 未填写 WhatsApp 号码时回退到手机号
func (a *WhatsAppAdapter) Destination(d DonorRecord) string {
	raw := d.WhatsAppNumber
	if strings.TrimSpace(raw) == "" {
		raw = d.Phone
	}
	return utils.NormalizePhone(raw, a.countryCode)
}

func (a *WhatsAppAdapter) Send(ctx context.Context, destination string, msg Message) (string, error) {
	status, err := a.session.Status(ctx)
	if err != nil {
		return "", err
	}
	if !status.Ready {
		if !status.Initializing {
			a.initInBackground()
		}
		return "", whatsapp.ErrNotReady
	}

	return a.session.Send(ctx, utils.NormalizePhone(destination, a.countryCode), msg.Text)
}

func (a *WhatsAppAdapter) initInBackground() {
	if !a.initializing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer a.initializing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), a.initTimeout)
		defer cancel()

		if err := a.session.Initialize(ctx); err != nil {
			logger.Logger.Warn("Background WhatsApp initialization failed", zap.Error(err))
		}
	}()
}
