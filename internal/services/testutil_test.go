package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/onedaypage/backend/internal/config"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/pkg/logger"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger.Init()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&models.Page{}, &models.Message{}, &models.Photo{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func testPageConfig() config.PageConfig {
	return config.PageConfig{
		Lifetime:     24 * time.Hour,
		SecretLength: 32,
		PhotoQuota:   5,
		PublicView:   true,
	}
}

func seedPage(t *testing.T, db *gorm.DB, secret string, expiresAt time.Time) *models.Page {
	t.Helper()

	page := &models.Page{
		Secret:     secret,
		ExpiresAt:  expiresAt,
		Title:      "Happy Birthday",
		Theme:      models.PageThemeConfetti,
		PhotoQuota: 5,
	}
	if err := db.Create(page).Error; err != nil {
		t.Fatalf("failed seeding page: %v", err)
	}
	return page
}
