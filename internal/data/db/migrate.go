package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/gamerec-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}
