package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BackupResult contains information about a backup operation
type BackupResult struct {
	BackupPath string    `json:"backup_path"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// BackupInfo contains information about an existing backup file
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func defaultDBPath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		return env
	}
	return "data/authbridge.db"
}

// BackupDatabase creates a backup of the SQLite database using VACUUM INTO.
// Safe to run while the database is in use under WAL mode. Called before
// an operator credential wipe so a reset is recoverable.
func BackupDatabase(db *gorm.DB, dbPath string) (*BackupResult, error) {
	dbPath = defaultDBPath(dbPath)

	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	backupFilename := fmt.Sprintf("authbridge_%s.db", timestamp)
	backupPath := filepath.Join(backupDir, backupFilename)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	_, err = sqlDB.Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath))
	if err != nil {
		return nil, fmt.Errorf("backup failed: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}

	return &BackupResult{
		BackupPath: backupPath,
		Size:       info.Size(),
		CreatedAt:  time.Now(),
	}, nil
}

// ListBackups returns available backup files, newest first.
func ListBackups(dbPath string) ([]BackupInfo, error) {
	dbPath = defaultDBPath(dbPath)
	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")

	if _, err := os.Stat(backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, "authbridge_") || !strings.HasSuffix(name, ".db") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  name,
			Path:      filepath.Join(backupDir, name),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// CleanupOldBackups keeps the most recent 'keep' backups and deletes the rest.
func CleanupOldBackups(dbPath string, keep int) (int, error) {
	if keep <= 0 {
		keep = 5
	}

	backups, err := ListBackups(dbPath)
	if err != nil {
		return 0, err
	}

	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for i := keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			continue
		}
		deleted++
	}

	return deleted, nil
}
