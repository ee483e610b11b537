package database

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"authbridge/models"
)

func TestResetCredentials(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Credential{}, &models.AuthSession{}, &models.AuditLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, userID := range []string{"alice", "bob"} {
		if err := db.Create(&models.Credential{
			UserID:      userID,
			AccessToken: "ciphertext",
			ExpiresAt:   time.Now().Add(time.Hour),
		}).Error; err != nil {
			t.Fatalf("Failed to seed credential: %v", err)
		}
	}
	if err := db.Create(&models.AuthSession{
		State:     "state-1",
		Status:    models.SessionPending,
		UserID:    "alice",
		ExpiresAt: time.Now().Add(time.Minute),
	}).Error; err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}

	result, err := ResetCredentials(db)
	if err != nil {
		t.Fatalf("ResetCredentials failed: %v", err)
	}
	if result.Credentials != 2 {
		t.Errorf("Credentials deleted: got %d, want 2", result.Credentials)
	}
	if result.Sessions != 1 {
		t.Errorf("Sessions deleted: got %d, want 1", result.Sessions)
	}

	var creds, sessions int64
	db.Model(&models.Credential{}).Count(&creds)
	db.Model(&models.AuthSession{}).Count(&sessions)
	if creds != 0 || sessions != 0 {
		t.Fatalf("Tables not empty after reset: %d credentials, %d sessions", creds, sessions)
	}

	// A reset of an already-empty store succeeds and reports zero rows.
	result, err = ResetCredentials(db)
	if err != nil {
		t.Fatalf("Second reset failed: %v", err)
	}
	if result.Credentials != 0 || result.Sessions != 0 {
		t.Errorf("Second reset should delete nothing: %+v", result)
	}
}
