package store

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"authbridge/models"
	"authbridge/utils"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	if err := utils.SetEncryptionKey("0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Failed to set encryption key: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if err := db.AutoMigrate(&models.Credential{}, &models.AuthSession{}, &models.AuditLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}
