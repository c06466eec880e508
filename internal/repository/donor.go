package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"BloodConnect/internal/model"
	"BloodConnect/internal/notify"
	pkgerrors "BloodConnect/pkg/errors"
)

// DonorFilter 空字段表示不限
type DonorFilter struct {
	BloodGroup    string
	District      string
	OnlyAvailable bool
}

type DonorRepository struct {
	db *gorm.DB
}

func NewDonorRepository(db *gorm.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

func (r *DonorRepository) Create(ctx context.Context, d *model.Donor) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.DonorAlreadyRegistered
	}
	return err
}

func (r *DonorRepository) FindByPublicID(ctx context.Context, publicID int64) (*model.Donor, error) {
	var d model.Donor
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.DonorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonorRepository) Search(ctx context.Context, f DonorFilter) ([]model.Donor, error) {
	q := r.db.WithContext(ctx).Model(&model.Donor{})
	if f.OnlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	if f.BloodGroup != "" {
		q = q.Where("blood_group = ?", f.BloodGroup)
	}
	if f.District != "" {
		q = q.Where("district = ?", f.District)
	}

	var donors []model.Donor
	if err := q.Order("created_at DESC").Find(&donors).Error; err != nil {
		return nil, err
	}
	return donors, nil
}

func (r *DonorRepository) UpdateAvailability(ctx context.Context, publicID int64, available bool) error {
	return r.update(ctx, publicID, map[string]interface{}{"is_available": available})
}

// UpdateDonationStatus 状态为 Donated 时同时记录献血时间
func (r *DonorRepository) UpdateDonationStatus(ctx context.Context, publicID int64, status model.DonationStatus) error {
	fields := map[string]interface{}{"donation_status": status}
	if status == model.DonationStatusDonated {
		fields["last_donated_at"] = gorm.Expr("now()")
	}
	return r.update(ctx, publicID, fields)
}

func (r *DonorRepository) update(ctx context.Context, publicID int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Donor{}).Where("public_id = ?", publicID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.DonorNotFound
	}
	return nil
}

func (r *DonorRepository) Delete(ctx context.Context, publicID int64) error {
	res := r.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&model.Donor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.DonorNotFound
	}
	return nil
}

// FindAvailable 实现 notify.Directory，只做等值过滤
func (r *DonorRepository) FindAvailable(ctx context.Context, q notify.DirectoryQuery) ([]notify.DonorRecord, error) {
	donors, err := r.Search(ctx, DonorFilter{
		BloodGroup:    q.BloodGroup,
		District:      q.District,
		OnlyAvailable: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]notify.DonorRecord, 0, len(donors))
	for _, d := range donors {
		out = append(out, ToRecord(d))
	}
	return out, nil
}

// ToRecord 转换为分发使用的只读投影
func ToRecord(d model.Donor) notify.DonorRecord {
	return notify.DonorRecord{
		ID:             strconv.FormatInt(d.PublicID, 10),
		Name:           d.Name,
		BloodGroup:     d.BloodGroup,
		District:       d.District,
		Phone:          d.Phone,
		Email:          d.Email,
		WhatsAppNumber: d.WhatsAppNumber,
		IsAvailable:    d.IsAvailable,
	}
}
