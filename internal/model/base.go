package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 自增主键只在库内使用，对外一律暴露 snowflake 生成的 PublicID
type BaseModel struct {
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"-"`
}
