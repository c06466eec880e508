package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"BloodConnect/config"
	"BloodConnect/internal/model"
	"BloodConnect/internal/model/dto"
	"BloodConnect/internal/repository"
	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/logger"
	"BloodConnect/pkg/snowflake"
	"BloodConnect/storage/database"
	"BloodConnect/utils"
)

type donorStore interface {
	Create(ctx context.Context, d *model.Donor) error
	FindByPublicID(ctx context.Context, publicID int64) (*model.Donor, error)
	Search(ctx context.Context, f repository.DonorFilter) ([]model.Donor, error)
	UpdateAvailability(ctx context.Context, publicID int64, available bool) error
	UpdateDonationStatus(ctx context.Context, publicID int64, status model.DonationStatus) error
	Delete(ctx context.Context, publicID int64) error
}

var (
	donorService *DonorService
	donorOnce    sync.Once
)

func Donor() *DonorService {
	donorOnce.Do(func() {
		donorService = NewDonorService(repository.NewDonorRepository(database.DB()))
	})
	return donorService
}

type DonorService struct {
	donors donorStore
}

func NewDonorService(donors donorStore) *DonorService {
	return &DonorService{donors: donors}
}

// Register 公开登记，新登记的献血者默认可用
func (s *DonorService) Register(ctx context.Context, req dto.RegisterDonorRequest) (*dto.DonorItem, error) {
	cc := config.Cfg.DefaultCountryCode

	bg := model.BloodGroup(strings.ToUpper(strings.TrimSpace(req.BloodGroup)))
	if !bg.Valid() {
		return nil, errors.InvalidBloodGroup
	}
	district := strings.TrimSpace(req.District)
	if !model.ValidDistrict(district) {
		return nil, errors.InvalidDistrict
	}
	if !utils.ValidatePhone(req.Phone, cc) {
		return nil, errors.InvalidPhone
	}

	emailAddr := strings.TrimSpace(req.Email)
	if emailAddr != "" && !utils.ValidateEmail(emailAddr) {
		return nil, errors.InvalidEmail
	}

	var whatsappNumber string
	if strings.TrimSpace(req.WhatsAppNumber) != "" {
		if !utils.ValidatePhone(req.WhatsAppNumber, cc) {
			return nil, errors.InvalidPhone.WithMessage("Invalid WhatsApp number")
		}
		whatsappNumber = utils.NormalizePhone(req.WhatsAppNumber, cc)
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor ID: %w", err)
	}

	donor := &model.Donor{
		PublicID:       publicID,
		Name:           strings.TrimSpace(req.Name),
		RollNumber:     strings.TrimSpace(req.RollNumber),
		Email:          emailAddr,
		Phone:          utils.NormalizePhone(req.Phone, cc),
		WhatsAppNumber: whatsappNumber,
		BloodGroup:     bg,
		District:       district,
		Area:           strings.TrimSpace(req.Area),
		Department:     strings.TrimSpace(req.Department),
		Year:           strings.TrimSpace(req.Year),
		Section:        strings.TrimSpace(req.Section),
		DonationStatus: model.DonationStatusAvailable,
		IsAvailable:    true,
	}
	if donor.Name == "" {
		return nil, errors.InvalidRequest.WithMessage("name is required")
	}

	if err := s.donors.Create(ctx, donor); err != nil {
		return nil, err
	}

	logger.Logger.Info("Donor registered",
		zap.Int64("donor_id", publicID),
		zap.String("blood_group", string(bg)),
		zap.String("district", district),
	)

	item := toDonorItem(*donor, true)
	return &item, nil
}

// Search 公开查询只返回可用献血者，手机号打码；管理员查询返回全部字段
func (s *DonorService) Search(ctx context.Context, q dto.SearchDonorsQuery, admin bool) ([]dto.DonorItem, error) {
	filter := repository.DonorFilter{OnlyAvailable: !admin}

	if bg := strings.ToUpper(strings.TrimSpace(q.BloodGroup)); bg != "" {
		if !model.BloodGroup(bg).Valid() {
			return nil, errors.InvalidBloodGroup
		}
		filter.BloodGroup = bg
	}
	if d := strings.TrimSpace(q.District); d != "" {
		if !model.ValidDistrict(d) {
			return nil, errors.InvalidDistrict
		}
		filter.District = d
	}

	donors, err := s.donors.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DonorItem, 0, len(donors))
	for _, d := range donors {
		items = append(items, toDonorItem(d, admin))
	}
	return items, nil
}

func (s *DonorService) SetAvailability(ctx context.Context, publicID int64, available bool) error {
	if err := s.donors.UpdateAvailability(ctx, publicID, available); err != nil {
		return err
	}
	logger.Logger.Info("Donor availability updated",
		zap.Int64("donor_id", publicID),
		zap.Bool("is_available", available),
	)
	return nil
}

func (s *DonorService) SetDonationStatus(ctx context.Context, publicID int64, status string) error {
	st := model.DonationStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return errors.InvalidDonationStatus
	}
	return s.donors.UpdateDonationStatus(ctx, publicID, st)
}

func (s *DonorService) Delete(ctx context.Context, publicID int64) error {
	if err := s.donors.Delete(ctx, publicID); err != nil {
		return err
	}
	logger.Logger.Info("Donor deleted", zap.Int64("donor_id", publicID))
	return nil
}

func toDonorItem(d model.Donor, full bool) dto.DonorItem {
	item := dto.DonorItem{
		PublicID:       d.PublicID,
		Name:           d.Name,
		BloodGroup:     string(d.BloodGroup),
		District:       d.District,
		Area:           d.Area,
		Phone:          d.Phone,
		DonationStatus: string(d.DonationStatus),
		IsAvailable:    d.IsAvailable,
		LastDonatedAt:  d.LastDonatedAt,
	}
	if full {
		item.Email = d.Email
	} else {
		item.Phone = utils.MaskPhone(d.Phone)
	}
	return item
}
