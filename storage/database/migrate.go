package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"BloodConnect/internal/model"
	"BloodConnect/pkg/logger"
)

// Migrate 创建献血者和紧急请求表
func Migrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	if err := db.AutoMigrate(
		&model.Donor{},
		&model.EmergencyRequest{},
	); err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
