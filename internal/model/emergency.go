package model

// RequestStatus 紧急请求状态
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "open"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusClosed    RequestStatus = "closed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusOpen, RequestStatusFulfilled, RequestStatusClosed:
		return true
	}
	return false
}

// EmergencyRequest 紧急用血请求；VolunteerID 非零表示由已登记的志愿者代为提交
type EmergencyRequest struct {
	BloodGroup    BloodGroup    `gorm:"size:3;not null" json:"blood_group"`
	District      string        `gorm:"size:60;not null" json:"district"`
	Urgency       Urgency       `gorm:"size:10;not null" json:"urgency"`
	Description   string        `gorm:"type:text" json:"description"`
	ContactName   string        `gorm:"size:120;not null" json:"contact_name"`
	ContactPhone  string        `gorm:"size:20;not null" json:"contact_phone"`
	ContactEmail  string        `gorm:"size:160" json:"contact_email,omitempty"`
	PatientName   string        `gorm:"size:120" json:"patient_name,omitempty"`
	HospitalName  string        `gorm:"size:160" json:"hospital_name,omitempty"`
	RequiredUnits string        `gorm:"size:10" json:"required_units,omitempty"`
	Status        RequestStatus `gorm:"size:12;not null;index" json:"status"`
	BaseModel
	PublicID    int64 `gorm:"uniqueIndex;not null" json:"public_id,string"`
	VolunteerID int64 `gorm:"index" json:"volunteer_id,string,omitempty"`
}

func (EmergencyRequest) TableName() string {
	return "emergency_requests"
}
