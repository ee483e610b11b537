package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"authbridge/models"
)

// DB is the global database instance
var DB *gorm.DB

// DBType stores the current database type for use in other functions
var DBType string

// InitDB initializes the database connection
func InitDB() (*gorm.DB, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite" // Default to SQLite for single-host deployment
	}
	DBType = dbType

	var db *gorm.DB
	var err error

	if dbType == "sqlite" {
		db, err = initSQLite()
	} else {
		db, err = initMySQL()
	}

	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if dbType == "sqlite" {
		// SQLite: small pool; both the callback listener and the
		// consumer API hit this database concurrently.
		sqlDB.SetMaxOpenConns(5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(time.Hour)

		sqlDB.Exec("PRAGMA foreign_keys = ON")
		sqlDB.Exec("PRAGMA journal_mode = WAL")
		sqlDB.Exec("PRAGMA synchronous = NORMAL")
		sqlDB.Exec("PRAGMA busy_timeout = 5000") // 5 second wait for locks

		var integrityResult string
		sqlDB.QueryRow("PRAGMA integrity_check").Scan(&integrityResult)
		if integrityResult != "ok" {
			log.Printf("WARNING: Database integrity check failed: %s", integrityResult)
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	err = db.AutoMigrate(
		&models.Credential{},
		&models.AuthSession{},
		&models.AuditLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Migration: token columns must hold encrypted values (MySQL only;
	// SQLite TEXT is unbounded).
	if dbType != "sqlite" {
		var existingSize int64
		db.Raw("SELECT CHARACTER_MAXIMUM_LENGTH FROM information_schema.columns WHERE table_name = 'credentials' AND column_name = 'access_token'").Scan(&existingSize)
		if existingSize > 0 && existingSize < 1000 {
			log.Println("Expanding credential token columns to support encrypted tokens...")
			db.Exec(`ALTER TABLE credentials MODIFY COLUMN access_token TEXT DEFAULT NULL`)
			db.Exec(`ALTER TABLE credentials MODIFY COLUMN refresh_token TEXT DEFAULT NULL`)
		}
	}

	migrator := db.Migrator()
	if !migrator.HasIndex(&models.AuditLog{}, "idx_audit_logs_created_at") {
		if err := db.Exec(`
			CREATE INDEX idx_audit_logs_created_at ON audit_logs(created_at)
		`).Error; err != nil {
			log.Printf("Note: Could not create audit_logs index: %v", err)
		}
	}

	DB = db
	log.Println("Database connected successfully")

	return db, nil
}

// GetDB returns the global database instance
func GetDB() *gorm.DB {
	return DB
}

// initSQLite initializes a SQLite database connection
func initSQLite() (*gorm.DB, error) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/authbridge.db"
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("Opening SQLite database at: %s", dbPath)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	return db, nil
}

// initMySQL initializes a MySQL database connection
func initMySQL() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		missingVars := []string{}
		dbUser := os.Getenv("DB_USER")
		dbPass := os.Getenv("DB_PASS")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		dbName := os.Getenv("DB_NAME")

		if dbUser == "" {
			missingVars = append(missingVars, "DB_USER")
		}
		if dbPass == "" {
			missingVars = append(missingVars, "DB_PASS")
		}
		if dbHost == "" {
			missingVars = append(missingVars, "DB_HOST")
		}
		if dbPort == "" {
			missingVars = append(missingVars, "DB_PORT")
		}
		if dbName == "" {
			missingVars = append(missingVars, "DB_NAME")
		}

		if len(missingVars) > 0 {
			return nil, fmt.Errorf("missing required environment variables: %s. Either set DATABASE_URL or all of: DB_USER, DB_PASS, DB_HOST, DB_PORT, DB_NAME", strings.Join(missingVars, ", "))
		}

		dsn = dbUser + ":" + dbPass + "@tcp(" + dbHost + ":" + dbPort + ")/" + dbName + "?parseTime=true&allowNativePasswords=true"
	}

	log.Println("Opening MySQL database connection...")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return db, nil
}

// ShutdownDB performs a clean shutdown of the database connection
func ShutdownDB() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("error getting database connection: %w", err)
	}

	// Checkpoint WAL before closing (SQLite only)
	if DBType == "sqlite" {
		log.Println("Checkpointing SQLite WAL...")
		sqlDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}

	log.Println("Database connection closed")
	return nil
}
