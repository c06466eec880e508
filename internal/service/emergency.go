package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/cache"
	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/notify"
	"BloodConnect/internal/repository"
	"BloodConnect/pkg/email"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/metrics"
	"BloodConnect/pkg/snowflake"
	"BloodConnect/storage/database"
	"BloodConnect/utils"
)

type emergencyStore interface {
	Create(ctx context.Context, req *model.EmergencyRequest) error
	FindByPublicID(ctx context.Context, publicID int64) (*model.EmergencyRequest, error)
	ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]model.EmergencyRequest, error)
	UpdateStatus(ctx context.Context, publicID int64, status model.RequestStatus) error
}

type volunteerLookup interface {
	FindByPublicID(ctx context.Context, publicID int64) (*model.Donor, error)
}

var (
	emergencyService *EmergencyService
	emergencyOnce    sync.Once
)

func Emergency() *EmergencyService {
	emergencyOnce.Do(func() {
		db := database.DB()
		emergencyService = NewEmergencyService(EmergencyDeps{
			Requests:   repository.NewEmergencyRepository(db),
			Volunteers: repository.NewDonorRepository(db),
			Dispatcher: Notification(),
			Mailer:     email.Default(),
			Runner:     currentTaskRunner,
		})
	})
	return emergencyService
}

// EmergencyDeps Runner 为函数以便 server 启动后再设置执行方式
type EmergencyDeps struct {
	Requests   emergencyStore
	Volunteers volunteerLookup
	Dispatcher dispatcher
	Mailer     email.Sender
	Runner     func() TaskRunner
	Now        func() time.Time
}

type EmergencyService struct {
	requests   emergencyStore
	volunteers volunteerLookup
	dispatcher dispatcher
	mailer     email.Sender
	runner     func() TaskRunner
	now        func() time.Time
}

func NewEmergencyService(deps EmergencyDeps) *EmergencyService {
	s := &EmergencyService{
		requests:   deps.Requests,
		volunteers: deps.Volunteers,
		dispatcher: deps.Dispatcher,
		mailer:     deps.Mailer,
		runner:     deps.Runner,
		now:        deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.runner == nil {
		s.runner = currentTaskRunner
	}
	return s
}

// Create 保存请求并提交后台通知任务后立即返回，不等待任何发送
func (s *EmergencyService) Create(ctx context.Context, req dto.CreateEmergencyRequest) (*dto.CreateEmergencyResponse, error) {
	record := &model.EmergencyRequest{
		BloodGroup:    model.BloodGroup(strings.ToUpper(strings.TrimSpace(req.BloodGroup))),
		District:      strings.TrimSpace(req.District),
		Urgency:       model.Urgency(strings.ToLower(strings.TrimSpace(req.Urgency))),
		Description:   strings.TrimSpace(req.Description),
		ContactName:   strings.TrimSpace(req.ContactName),
		ContactPhone:  strings.TrimSpace(req.ContactPhone),
		ContactEmail:  strings.TrimSpace(req.ContactEmail),
		PatientName:   strings.TrimSpace(req.PatientName),
		HospitalName:  strings.TrimSpace(req.HospitalName),
		RequiredUnits: strings.TrimSpace(req.RequiredUnits),
		VolunteerID:   req.VolunteerID,
		Status:        model.RequestStatusOpen,
	}

	if err := notify.EventFromRequest(record).Validate(); err != nil {
		return nil, err
	}
	if record.ContactEmail != "" && !utils.ValidateEmail(record.ContactEmail) {
		return nil, errors.InvalidEmail
	}
	if record.VolunteerID != 0 {
		if _, err := s.volunteers.FindByPublicID(ctx, record.VolunteerID); err != nil {
			return nil, err
		}
	}

	runner := s.runner()
	if runner == nil {
		return nil, errors.DispatchSubmitFailed
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request ID: %w", err)
	}
	record.PublicID = publicID

	if err := s.requests.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save emergency request: %w", err)
	}

	if err := runner.Submit(ctx, DispatchTask{RequestID: publicID, SubmittedAt: s.now()}); err != nil {
		// 请求已保存，管理员仍可通过广播补发
		logger.Logger.Error("Failed to submit dispatch task",
			zap.Int64("request_id", publicID),
			zap.String("mode", runner.Mode()),
			zap.Error(err),
		)
		metrics.GetMetrics().RecordTaskFailed(ctx, runner.Mode(), taskFailureReason(err))
		return nil, err
	}

	logger.Logger.Info("Emergency request accepted",
		zap.Int64("request_id", publicID),
		zap.String("blood_group", string(record.BloodGroup)),
		zap.String("district", record.District),
		zap.String("urgency", string(record.Urgency)),
		zap.String("mode", runner.Mode()),
	)

	return &dto.CreateEmergencyResponse{
		Request:      toEmergencyItem(*record),
		DispatchMode: runner.Mode(),
	}, nil
}

// ProcessDispatch 后台执行：先发直接联系邮件，再广播，最后缓存汇总
func (s *EmergencyService) ProcessDispatch(ctx context.Context, requestID int64) (*notify.Summary, error) {
	req, err := s.requests.FindByPublicID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.VolunteerID != 0 {
		s.sendDirectContact(ctx, req)
	}

	summary, err := s.dispatcher.Dispatch(ctx, notify.EventFromRequest(req))
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(config.Cfg.SummaryTTLHours) * time.Hour
	if cacheErr := cache.SetDispatchSummary(ctx, requestID, summary, ttl); cacheErr != nil {
		logger.Logger.Warn("Failed to cache dispatch summary",
			zap.Int64("request_id", requestID),
			zap.Error(cacheErr),
		)
	}

	logger.Logger.Info("Emergency dispatch finished",
		zap.Int64("request_id", requestID),
		zap.Int("recipients", summary.Recipients),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailedCount),
		zap.String("resolve_error", summary.ResolveError),
	)
	return summary, nil
}

// sendDirectContact 志愿者代为提交时通知管理员并回执志愿者；失败只记日志
func (s *EmergencyService) sendDirectContact(ctx context.Context, req *model.EmergencyRequest) {
	log := logger.Logger.With(zap.Int64("request_id", req.PublicID), zap.Int64("volunteer_id", req.VolunteerID))

	if s.mailer == nil {
		log.Warn("Email sender not configured, skipping direct contact emails")
		return
	}

	volunteer, err := s.volunteers.FindByPublicID(ctx, req.VolunteerID)
	if err != nil {
		log.Warn("Failed to load volunteer for direct contact", zap.Error(err))
		volunteer = nil
	}

	if adminEmail := config.Cfg.AdminEmail; adminEmail != "" {
		data := email.AdminEmergency{
			RequestedAt:    req.CreatedAt,
			RequestID:      strconv.FormatInt(req.PublicID, 10),
			Urgency:        string(req.Urgency),
			PatientName:    req.PatientName,
			BloodGroup:     string(req.BloodGroup),
			District:       req.District,
			HospitalName:   req.HospitalName,
			RequiredUnits:  req.RequiredUnits,
			Description:    req.Description,
			RequesterName:  req.ContactName,
			RequesterPhone: req.ContactPhone,
			RequesterEmail: req.ContactEmail,
		}
		if data.RequestedAt.IsZero() {
			data.RequestedAt = s.now()
		}
		if volunteer != nil {
			data.Volunteer = toEmailVolunteer(volunteer)
		}

		if err := s.sendHTML(ctx, adminEmail, email.AdminEmergencySubject(data), req.ContactEmail, func() (string, error) {
			return email.AdminEmergencyHTML(data)
		}); err != nil {
			log.Error("Failed to send admin emergency email", zap.Error(err))
		}
	} else {
		log.Warn("ADMIN_EMAIL not set, skipping admin emergency email")
	}

	if volunteer == nil || volunteer.Email == "" {
		return
	}
	if err := s.sendHTML(ctx, volunteer.Email, email.VolunteerConfirmSubject(string(req.BloodGroup)), "", func() (string, error) {
		return email.VolunteerConfirmHTML(volunteer.Name, string(req.BloodGroup), req.PatientName, req.ContactName)
	}); err != nil {
		log.Error("Failed to send volunteer confirmation email", zap.Error(err))
	}
}

func (s *EmergencyService) sendHTML(ctx context.Context, to, subject, replyTo string, render func() (string, error)) error {
	html, err := render()
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	_, err = s.mailer.Send(ctx, email.Mail{
		To:           []string{to},
		Subject:      subject,
		Text:         subject,
		HTML:         html,
		ReplyTo:      replyTo,
		HighPriority: true,
	})
	return err
}

func toEmailVolunteer(d *model.Donor) *email.Volunteer {
	return &email.Volunteer{
		Name:           d.Name,
		RollNumber:     d.RollNumber,
		BloodGroup:     string(d.BloodGroup),
		District:       d.District,
		Phone:          d.Phone,
		Email:          d.Email,
		Department:     d.Department,
		Year:           d.Year,
		Section:        d.Section,
		DonationStatus: string(d.DonationStatus),
		IsAvailable:    d.IsAvailable,
	}
}

// List status 为空时默认 open
func (s *EmergencyService) List(ctx context.Context, status string) ([]dto.EmergencyItem, error) {
	st := model.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if st == "" {
		st = model.RequestStatusOpen
	}
	if !st.Valid() {
		return nil, errors.InvalidRequestStatus
	}

	list, err := s.requests.ListByStatus(ctx, st, 0)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EmergencyItem, 0, len(list))
	for _, r := range list {
		items = append(items, toEmergencyItem(r))
	}
	return items, nil
}

func (s *EmergencyService) UpdateStatus(ctx context.Context, publicID int64, status string) error {
	st := model.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return errors.InvalidRequestStatus
	}
	if err := s.requests.UpdateStatus(ctx, publicID, st); err != nil {
		return err
	}
	logger.Logger.Info("Emergency request status updated",
		zap.Int64("request_id", publicID),
		zap.String("status", string(st)),
	)
	return nil
}

// Summary 完整汇总（含收件人明细），仅管理员可见；请求存在但后台任务尚未完成时返回 DispatchPending
func (s *EmergencyService) Summary(ctx context.Context, publicID int64) (*notify.Summary, error) {
	if _, err := s.requests.FindByPublicID(ctx, publicID); err != nil {
		return nil, err
	}

	summary, err := cache.GetDispatchSummary(ctx, publicID)
	if err != nil {
		if stderrors.Is(err, errors.DispatchPending) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read dispatch summary: %w", err)
	}
	return summary, nil
}

// DispatchCounts 公开接口使用，去掉每个收件人的明细
func (s *EmergencyService) DispatchCounts(ctx context.Context, publicID int64) (*dto.DispatchCountsResponse, error) {
	summary, err := s.Summary(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return &dto.DispatchCountsResponse{
		Recipients:    summary.Recipients,
		SuccessCount:  summary.SuccessCount,
		FailedCount:   summary.FailedCount,
		ResolveFailed: summary.ResolveError != "",
	}, nil
}

func toEmergencyItem(r model.EmergencyRequest) dto.EmergencyItem {
	return dto.EmergencyItem{
		PublicID:      r.PublicID,
		CreatedAt:     r.CreatedAt,
		BloodGroup:    string(r.BloodGroup),
		District:      r.District,
		Urgency:       string(r.Urgency),
		Description:   r.Description,
		ContactName:   r.ContactName,
		ContactPhone:  r.ContactPhone,
		PatientName:   r.PatientName,
		HospitalName:  r.HospitalName,
		RequiredUnits: r.RequiredUnits,
		Status:        string(r.Status),
	}
}
