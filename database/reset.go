package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"authbridge/models"
	"authbridge/utils"
)

// ResetResult summarizes an operator-driven credential wipe.
type ResetResult struct {
	Credentials int64  `json:"credentials_deleted"`
	Sessions    int64  `json:"sessions_deleted"`
	BackupPath  string `json:"backup_path,omitempty"`
}

// ResetCredentials deletes every stored credential and authorization
// session. A SQLite backup is taken first so the wipe is recoverable;
// on MySQL the backup step is skipped.
func ResetCredentials(db *gorm.DB) (*ResetResult, error) {
	result := &ResetResult{}

	if DBType == "sqlite" {
		backup, err := utils.BackupDatabase(db, "")
		if err != nil {
			log.Printf("Warning: pre-reset backup failed: %v", err)
		} else {
			result.BackupPath = backup.BackupPath
		}
	}

	creds := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Credential{})
	if creds.Error != nil {
		return nil, fmt.Errorf("failed to delete credentials: %w", creds.Error)
	}
	result.Credentials = creds.RowsAffected

	sessions := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AuthSession{})
	if sessions.Error != nil {
		return nil, fmt.Errorf("failed to delete auth sessions: %w", sessions.Error)
	}
	result.Sessions = sessions.RowsAffected

	log.Printf("Credential store reset: %d credentials, %d sessions removed", result.Credentials, result.Sessions)
	return result, nil
}
