package dto

import "time"

// RegisterDonorRequest 献血者登记
type RegisterDonorRequest struct {
	Name           string `json:"name" vd:"len($)>0"`
	RollNumber     string `json:"roll_number"`
	Email          string `json:"email"`
	Phone          string `json:"phone" vd:"len($)>0"`
	WhatsAppNumber string `json:"whatsapp_number"`
	BloodGroup     string `json:"blood_group" vd:"len($)>0"`
	District       string `json:"district" vd:"len($)>0"`
	Area           string `json:"area"`
	Department     string `json:"department"`
	Year           string `json:"year"`
	Section        string `json:"section"`
}

// SearchDonorsQuery 两个条件都可省略
type SearchDonorsQuery struct {
	BloodGroup string `query:"blood_group"`
	District   string `query:"district"`
}

// DonorItem 对外展示的献血者信息
type DonorItem struct {
	LastDonatedAt  *time.Time `json:"last_donated_at,omitempty"`
	Name           string     `json:"name"`
	BloodGroup     string     `json:"blood_group"`
	District       string     `json:"district"`
	Area           string     `json:"area,omitempty"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email,omitempty"`
	DonationStatus string     `json:"donation_status"`
	PublicID       int64      `json:"id,string"`
	IsAvailable    bool       `json:"is_available"`
}

type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" vd:"$!=nil"`
}

type UpdateDonationStatusRequest struct {
	DonationStatus string `json:"donation_status" vd:"len($)>0"`
}
