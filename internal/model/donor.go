package model

import "time"

// DonationStatus 献血状态
type DonationStatus string

const (
	DonationStatusAvailable DonationStatus = "Available"
	DonationStatusDonated   DonationStatus = "Donated"
	DonationStatusReferred  DonationStatus = "Referred"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusAvailable, DonationStatusDonated, DonationStatusReferred:
		return true
	}
	return false
}

// Donor 献血者登记记录
type Donor struct {
	LastDonatedAt  *time.Time     `gorm:"column:last_donated_at" json:"last_donated_at,omitempty"`
	Name           string         `gorm:"size:120;not null" json:"name"`
	RollNumber     string         `gorm:"size:40;uniqueIndex:idx_donor_roll,where:roll_number <> ''" json:"roll_number"`
	Email          string         `gorm:"size:160" json:"email"`
	Phone          string         `gorm:"size:20;not null" json:"phone"`
	WhatsAppNumber string         `gorm:"column:whatsapp_number;size:20" json:"whatsapp_number,omitempty"`
	BloodGroup     BloodGroup     `gorm:"size:3;not null;index:idx_donor_match,priority:2" json:"blood_group"`
	District       string         `gorm:"size:60;not null;index:idx_donor_match,priority:3" json:"district"`
	Area           string         `gorm:"size:120" json:"area"`
	Department     string         `gorm:"size:80" json:"department"`
	Year           string         `gorm:"size:10" json:"year"`
	Section        string         `gorm:"size:10" json:"section"`
	DonationStatus DonationStatus `gorm:"size:16;not null" json:"donation_status"`
	BaseModel
	PublicID    int64 `gorm:"uniqueIndex;not null" json:"public_id,string"`
	IsAvailable bool  `gorm:"not null;index:idx_donor_match,priority:1" json:"is_available"`
}

func (Donor) TableName() string {
	return "donors"
}
