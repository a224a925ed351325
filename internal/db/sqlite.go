// Package db persists the save-history audit log in SQLite.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/receiptdrop/receiptdrop/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.SaveRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// RecordSave writes the audit row for one save attempt.
func RecordSave(db *gorm.DB, rec models.SaveRecord) error {
	return db.Create(&rec).Error
}

// RecentSaves returns the newest save records for an account.
func RecentSaves(db *gorm.DB, email string, limit int) ([]models.SaveRecord, error) {
	var records []models.SaveRecord
	err := db.Where("email = ?", email).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
