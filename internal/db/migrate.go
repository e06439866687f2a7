package db

import (
	"investcore/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Profile{},
		&models.Plan{},
		&models.Investment{},
		&models.AccrualEvent{},
		&models.Transaction{},
		&models.Notification{},
		&models.SweepState{},
	)
}
