package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"nearbuy-api/log"
	"nearbuy-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Local{},
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Tag{},
		&models.PostTag{},
		&models.ChatRoom{},
		&models.ChatJoin{},
		&models.ChatPromise{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// SeedData populates the reference tables. Categories and locals are never
// created through the API, so a fresh database needs them up front.
func SeedData(db *gorm.DB) error {
	var categoryCount int64
	db.Model(&models.Category{}).Count(&categoryCount)

	if categoryCount == 0 {
		categories := []models.Category{
			{Name: "food"},
			{Name: "household"},
			{Name: "fruit"},
			{Name: "stationery"},
			{Name: "etc"},
		}
		for _, category := range categories {
			if err := db.Create(&category).Error; err != nil {
				log.Warn.Printf("could not seed category %s: %v", category.Name, err)
			}
		}
	}

	var localCount int64
	db.Model(&models.Local{}).Count(&localCount)

	if localCount == 0 {
		locals := []models.Local{
			{Name: "Riverside"},
			{Name: "Old Town"},
			{Name: "Hillcrest"},
			{Name: "Harbor District"},
		}
		for _, local := range locals {
			if err := db.Create(&local).Error; err != nil {
				log.Warn.Printf("could not seed local %s: %v", local.Name, err)
			}
		}
	}

	return nil
}
