package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"BloodConnect/config"
	"BloodConnect/pkg/logger"
)

var (
	ErrAuth    = errors.New("smtp authentication failed: check GMAIL_USER and GMAIL_APP_PASSWORD")
	ErrTimeout = errors.New("smtp connection timed out")
	ErrUnknown = errors.New("smtp send failed")

	ErrNotConfigured = errors.New("smtp credentials are not configured")
	ErrNoRecipient   = errors.New("email has no recipient")
)

// Mail 一封待发送的邮件
type Mail struct {
	To           []string
	Subject      string
	Text         string
	HTML         string
	ReplyTo      string
	HighPriority bool
}

// Sender 邮件发送接口，返回生成的 Message-ID
type Sender interface {
	Send(ctx context.Context, mail Mail) (string, error)
}

type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPSender 复用一条已认证的 SMTP 连接；发送失败后关闭连接，下次调用重新拨号，不重试
type SMTPSender struct {
	lastUsed time.Time
	dialer   dialer
	sc       gomail.SendCloser
	now      func() time.Time
	from     string
	fromName string
	bcc      string
	idle     time.Duration
	mu       sync.Mutex
}

type SMTPConfig struct {
	Host     string
	Username string
	Password string
	FromName string
	// Bcc 每封邮件都密送的地址，只加入收件人列表，不写入邮件头
	Bcc  string
	Port int
	Idle time.Duration
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrNotConfigured
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465

	return newSMTPSender(d, cfg), nil
}

func newSMTPSender(d dialer, cfg SMTPConfig) *SMTPSender {
	idle := cfg.Idle
	if idle <= 0 {
		idle = 30 * time.Second
	}
	return &SMTPSender{
		dialer:   d,
		from:     cfg.Username,
		fromName: cfg.FromName,
		bcc:      cfg.Bcc,
		idle:     idle,
		now:      time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, mail Mail) (id string, err error) {
	if len(mail.To) == 0 {
		return "", ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return "", categorize(err)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("SMTP send panicked", zap.Any("panic", r))
			id, err = "", fmt.Errorf("%w: panic: %v", ErrUnknown, r)
		}
	}()

	id = "<" + uuid.NewString() + "@bloodconnect>"
	m := s.build(mail, id)

	rcpts := append([]string{}, mail.To...)
	if s.bcc != "" {
		rcpts = append(rcpts, s.bcc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.conn()
	if err != nil {
		return "", categorize(err)
	}

	if err := sc.Send(s.from, rcpts, m); err != nil {
		s.reset()
		logger.Logger.Warn("SMTP send failed",
			zap.Strings("to", mail.To),
			zap.String("subject", mail.Subject),
			zap.Error(err),
		)
		return "", categorize(err)
	}
	s.lastUsed = s.now()

	return id, nil
}

func (s *SMTPSender) build(mail Mail, id string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", mail.To...)
	m.SetHeader("Subject", mail.Subject)
	m.SetHeader("Message-ID", id)
	if mail.ReplyTo != "" {
		m.SetHeader("Reply-To", mail.ReplyTo)
	}
	if mail.HighPriority {
		m.SetHeader("X-Priority", "1")
		m.SetHeader("X-MSMail-Priority", "High")
		m.SetHeader("Importance", "High")
	}

	text := mail.Text
	if text == "" {
		text = mail.Subject
	}
	m.SetBody("text/plain", text)
	if mail.HTML != "" {
		m.AddAlternative("text/html", mail.HTML)
	}
	return m
}

// conn 调用方持有 mu
func (s *SMTPSender) conn() (gomail.SendCloser, error) {
	if s.sc != nil && s.now().Sub(s.lastUsed) > s.idle {
		s.reset()
	}
	if s.sc != nil {
		return s.sc, nil
	}

	sc, err := s.dialer.Dial()
	if err != nil {
		return nil, err
	}
	s.sc = sc
	s.lastUsed = s.now()
	return sc, nil
}

func (s *SMTPSender) reset() {
	if s.sc == nil {
		return
	}
	_ = s.sc.Close()
	s.sc = nil
}

// Close 关闭复用的连接
func (s *SMTPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sc == nil {
		return nil
	}
	err := s.sc.Close()
	s.sc = nil
	return err
}

func categorize(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
	}
	// net/smtp 的认证错误不一定是 textproto.Error
	if strings.Contains(err.Error(), "Username and Password not accepted") {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrUnknown, err)
}

var (
	defaultSender Sender
	senderOnce    sync.Once
	senderErr     error
)

// Init 用配置创建默认 SMTP 发送器，凭据缺失时返回 ErrNotConfigured
func Init() error {
	senderOnce.Do(func() {
		cfg := config.Cfg
		sender, err := NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			FromName: cfg.SMTPFromName,
			Bcc:      cfg.AdminEmail,
			Idle:     time.Duration(cfg.SMTPIdle) * time.Second,
		})
		if err != nil {
			senderErr = err
			logger.Logger.Warn("Email sender disabled", zap.Error(err))
			return
		}
		defaultSender = sender
		logger.Logger.Info("Email sender initialized",
			zap.String("host", cfg.SMTPHost),
			zap.Int("port", cfg.SMTPPort),
		)
	})
	return senderErr
}

// Default 未配置时返回 nil
func Default() Sender {
	return defaultSender
}
