package models

import (
	"time"
)

type AuditLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType   string    `gorm:"size:100;index" json:"event_type"`
	EventAction string    `gorm:"size:100;index" json:"event_action"`
	UserID      string    `gorm:"size:255;index" json:"user_id"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	UserAgent   string    `gorm:"size:500" json:"user_agent"`
	Resource    string    `gorm:"size:255" json:"resource"`
	Details     string    `gorm:"type:text" json:"details"`
	Status      string    `gorm:"size:50" json:"status"`
	ErrorMsg    string    `gorm:"type:text" json:"error_msg"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditEventType string

const (
	AuditEventOAuth    AuditEventType = "oauth"
	AuditEventToken    AuditEventType = "token"
	AuditEventAdmin    AuditEventType = "admin"
	AuditEventSecurity AuditEventType = "security"
)

type AuditEventAction string

const (
	AuditActionBegin        AuditEventAction = "begin"
	AuditActionCallback     AuditEventAction = "callback"
	AuditActionTokenRefresh AuditEventAction = "token_refresh"
	AuditActionTokenImport  AuditEventAction = "token_import"
	AuditActionDisconnect   AuditEventAction = "disconnect"
	AuditActionReset        AuditEventAction = "reset"
	AuditActionError        AuditEventAction = "error"
	AuditActionWarning      AuditEventAction = "warning"
)
