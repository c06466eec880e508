package notify

import (
	"strings"

	"BloodConnect/internal/model"
	"BloodConnect/pkg/errors"
)

// Channel 通知渠道
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

// EmergencyEvent 一次紧急用血请求，分发期间按值传递且不可修改
type EmergencyEvent struct {
	BloodGroup    model.BloodGroup
	District      string
	Urgency       model.Urgency
	Description   string
	ContactName   string
	ContactPhone  string
	PatientName   string
	HospitalName  string
	RequiredUnits string
}

// Validate 在分发开始前拒绝缺字段或取值非法的事件
func (e EmergencyEvent) Validate() error {
	if !e.BloodGroup.Valid() {
		return errors.InvalidBloodGroup
	}
	if !model.ValidDistrict(e.District) {
		return errors.InvalidDistrict
	}
	if !e.Urgency.Valid() {
		return errors.InvalidUrgency
	}
	if strings.TrimSpace(e.ContactName) == "" {
		return errors.InvalidRequest.WithMessage("contact name is required")
	}
	if strings.TrimSpace(e.ContactPhone) == "" {
		return errors.InvalidRequest.WithMessage("contact phone is required")
	}
	return nil
}

// EventFromRequest 从持久化的请求记录构造事件
func EventFromRequest(req *model.EmergencyRequest) EmergencyEvent {
	return EmergencyEvent{
		BloodGroup:    req.BloodGroup,
		District:      req.District,
		Urgency:       req.Urgency,
		Description:   req.Description,
		ContactName:   req.ContactName,
		ContactPhone:  req.ContactPhone,
		PatientName:   req.PatientName,
		HospitalName:  req.HospitalName,
		RequiredUnits: req.RequiredUnits,
	}
}

// DonorRecord 目录返回的只读投影
type DonorRecord struct {
	ID             string
	Name           string
	BloodGroup     model.BloodGroup
	District       string
	Phone          string
	Email          string
	WhatsAppNumber string
	IsAvailable    bool
}

// Message 同一份文本复用于各渠道，邮件额外带主题
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Outcome 单个收件人在单个渠道上的发送结果
type Outcome struct {
	DonorID     string  `json:"donor_id"`
	Channel     Channel `json:"channel"`
	Destination string  `json:"destination"`
	MessageID   string  `json:"message_id,omitempty"`
	Error       string  `json:"error,omitempty"`
	Success     bool    `json:"success"`
}

// RecipientError 失败明细
type RecipientError struct {
	DonorID     string  `json:"donor_id"`
	Channel     Channel `json:"channel"`
	Destination string  `json:"destination"`
	Error       string  `json:"error"`
}

// Summary 一次分发的汇总；目录查询失败时 ResolveError 非空，计数均为 0
type Summary struct {
	ResolveError string           `json:"resolve_error,omitempty"`
	Errors       []RecipientError `json:"errors"`
	Outcomes     []Outcome        `json:"outcomes,omitempty"`
	Recipients   int              `json:"recipients"`
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
}
