package database

import (
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InviteCode{},
		&models.Worker{},
		&models.Schedule{},
		&models.Task{},
		&models.RecurringTask{},
		&models.Patient{},
		&models.Notification{},
		&models.TaskRequest{},
		&models.Message{},
		&models.CacheEntry{},
	)
}
