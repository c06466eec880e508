package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"BloodConnect/internal/model"
	pkgerrors "BloodConnect/pkg/errors"
)

const defaultListLimit = 100

type EmergencyRepository struct {
	db *gorm.DB
}

func NewEmergencyRepository(db *gorm.DB) *EmergencyRepository {
	return &EmergencyRepository{db: db}
}

func (r *EmergencyRepository) Create(ctx context.Context, req *model.EmergencyRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *EmergencyRepository) FindByPublicID(ctx context.Context, publicID int64) (*model.EmergencyRequest, error) {
	var req model.EmergencyRequest
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.EmergencyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByStatus 按创建时间倒序，最多返回 limit 条
func (r *EmergencyRepository) ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]model.EmergencyRequest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var list []model.EmergencyRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *EmergencyRepository) UpdateStatus(ctx context.Context, publicID int64, status model.RequestStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.EmergencyRequest{}).
		Where("public_id = ?", publicID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.EmergencyNotFound
	}
	return nil
}
