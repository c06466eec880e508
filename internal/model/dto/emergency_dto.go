package dto

import "time"

// CreateEmergencyRequest 紧急用血请求
type CreateEmergencyRequest struct {
	BloodGroup    string `json:"blood_group"`
	District      string `json:"district"`
	Urgency       string `json:"urgency"`
	Description   string `json:"description"`
	ContactName   string `json:"contact_name"`
	ContactPhone  string `json:"contact_phone"`
	ContactEmail  string `json:"contact_email"`
	PatientName   string `json:"patient_name"`
	HospitalName  string `json:"hospital_name"`
	RequiredUnits string `json:"required_units"`
	VolunteerID   int64  `json:"volunteer_id,string"`
}

// EmergencyItem 紧急请求展示
type EmergencyItem struct {
	CreatedAt     time.Time `json:"created_at"`
	BloodGroup    string    `json:"blood_group"`
	District      string    `json:"district"`
	Urgency       string    `json:"urgency"`
	Description   string    `json:"description,omitempty"`
	ContactName   string    `json:"contact_name"`
	ContactPhone  string    `json:"contact_phone"`
	PatientName   string    `json:"patient_name,omitempty"`
	HospitalName  string    `json:"hospital_name,omitempty"`
	RequiredUnits string    `json:"required_units,omitempty"`
	Status        string    `json:"status"`
	PublicID      int64     `json:"id,string"`
}

// CreateEmergencyResponse 请求已保存，通知在后台进行
type CreateEmergencyResponse struct {
	Request      EmergencyItem `json:"request"`
	DispatchMode string        `json:"dispatch_mode"`
}

type ListEmergencyQuery struct {
	Status string `query:"status"`
}

type UpdateEmergencyStatusRequest struct {
	Status string `json:"status" vd:"len($)>0"`
}

// BroadcastRequest 管理员同步广播，字段与紧急请求一致
type BroadcastRequest struct {
	BloodGroup    string `json:"blood_group"`
	District      string `json:"district"`
	Urgency       string `json:"urgency"`
	Description   string `json:"description"`
	ContactName   string `json:"contact_name"`
	ContactPhone  string `json:"contact_phone"`
	PatientName   string `json:"patient_name"`
	HospitalName  string `json:"hospital_name"`
	RequiredUnits string `json:"required_units"`
}

// DispatchCountsResponse 公开轮询只返回计数，不含收件人联系方式
type DispatchCountsResponse struct {
	Recipients    int  `json:"recipients"`
	SuccessCount  int  `json:"success_count"`
	FailedCount   int  `json:"failed_count"`
	ResolveFailed bool `json:"resolve_failed"`
}
