package database

import (
	"clipstream/internal/models"

	"gorm.io/gorm"
)

// Models lists every model in AutoMigrate order (parents before children).
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Video{},
		&models.Article{},
		&models.Like{},
		&models.Follow{},
		&models.Comment{},
	}
}

// Migrate runs GORM AutoMigrate for the full schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
