package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"BloodConnect/pkg/email"
	"BloodConnect/pkg/logger"
)

const defaultConcurrency = 16

// Recorder 分发指标，metrics.DispatchMetrics 实现该接口
type Recorder interface {
	RecordNotification(ctx context.Context, channel string, success bool, duration time.Duration)
	RecordDispatch(ctx context.Context, recipients int, resolveFailed bool, duration time.Duration)
}

type Dispatcher struct {
	resolver    *Resolver
	adapters    []Adapter
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

type Option func(*Dispatcher)

// WithConcurrency 限制同时进行的发送数，n <= 0 时使用默认值
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher adapters 的顺序即渠道顺序
func NewDispatcher(resolver *Resolver, adapters []Adapter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver:    resolver,
		adapters:    adapters,
		concurrency: defaultConcurrency,
		logger:      logger.Named("dispatcher"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// recipient 单次分发内的 (献血者, 渠道, 地址)
type recipient struct {
	donor       DonorRecord
	adapter     Adapter
	destination string
}

// Dispatch 校验、匹配、格式化一次，然后在有界并发下向每个收件人的每个渠道发送。
// 单条失败只计入汇总，不影响其他发送，也不重试。
func (d *Dispatcher) Dispatch(ctx context.Context, event EmergencyEvent) (*Summary, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	start := d.now()
	summary := &Summary{Errors: []RecipientError{}}

	donors, err := d.resolver.Resolve(ctx, string(event.BloodGroup), event.District)
	if err != nil {
		d.logger.Error("Failed to resolve recipients",
			zap.String("blood_group", string(event.BloodGroup)),
			zap.String("district", event.District),
			zap.Error(err),
		)
		summary.ResolveError = err.Error()
		d.recordDispatch(ctx, 0, true, start)
		return summary, nil
	}

	recipients := d.recipients(donors)
	summary.Recipients = len(recipients)
	if len(recipients) == 0 {
		d.logger.Info("No matching donors for emergency",
			zap.String("blood_group", string(event.BloodGroup)),
			zap.String("district", event.District),
		)
		d.recordDispatch(ctx, 0, false, start)
		return summary, nil
	}

	msg := d.message(event)
	outcomes := make([]Outcome, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, r := range recipients {
		i, r := i, r
		g.Go(func() error {
			outcomes[i] = d.send(ctx, r, msg)
			// 单条失败不取消其他发送
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Success {
			summary.SuccessCount++
			continue
		}
		summary.FailedCount++
		summary.Errors = append(summary.Errors, RecipientError{
			DonorID:     o.DonorID,
			Channel:     o.Channel,
			Destination: o.Destination,
			Error:       o.Error,
		})
	}
	summary.Outcomes = outcomes

	d.logger.Info("Emergency dispatch finished",
		zap.String("blood_group", string(event.BloodGroup)),
		zap.String("district", event.District),
		zap.String("urgency", string(event.Urgency)),
		zap.Int("recipients", summary.Recipients),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailedCount),
		zap.Duration("elapsed", d.now().Sub(start)),
	)
	d.recordDispatch(ctx, summary.Recipients, false, start)

	return summary, nil
}

func (d *Dispatcher) recipients(donors []DonorRecord) []recipient {
	var out []recipient
	for _, donor := range donors {
		if !donor.IsAvailable {
			continue
		}
		for _, a := range d.adapters {
			dest := a.Destination(donor)
			if dest == "" {
				continue
			}
			out = append(out, recipient{donor: donor, adapter: a, destination: dest})
		}
	}
	return out
}

func (d *Dispatcher) message(event EmergencyEvent) Message {
	msg := Message{
		Subject: EmailSubject(event),
		Text:    FormatMessage(event),
	}

	for _, a := range d.adapters {
		if a.Channel() != ChannelEmail {
			continue
		}
		html, err := email.BroadcastHTML(msg.Text, d.now())
		if err != nil {
			d.logger.Warn("Failed to render broadcast email, falling back to text", zap.Error(err))
			break
		}
		msg.HTML = html
		break
	}
	return msg
}

func (d *Dispatcher) send(ctx context.Context, r recipient, msg Message) (out Outcome) {
	channel := r.adapter.Channel()
	out = Outcome{
		DonorID:     r.donor.ID,
		Channel:     channel,
		Destination: r.destination,
	}

	start := d.now()
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("Channel adapter panicked",
				zap.String("channel", string(channel)),
				zap.String("donor_id", r.donor.ID),
				zap.Any("panic", p),
			)
			out.Success = false
			out.MessageID = ""
			out.Error = fmt.Sprintf("adapter panic: %v", p)
		}
		if d.recorder != nil {
			d.recorder.RecordNotification(ctx, string(channel), out.Success, d.now().Sub(start))
		}
	}()

	id, err := r.adapter.Send(ctx, r.destination, msg)
	if err != nil {
		d.logger.Warn("Notification failed",
			zap.String("channel", string(channel)),
			zap.String("donor_id", r.donor.ID),
			zap.Error(err),
		)
		out.Error = err.Error()
		return out
	}

	out.Success = true
	out.MessageID = id
	return out
}

func (d *Dispatcher) recordDispatch(ctx context.Context, recipients int, resolveFailed bool, start time.Time) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordDispatch(ctx, recipients, resolveFailed, d.now().Sub(start))
}
