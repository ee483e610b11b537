package models

import (
	"time"
)

// AuthSession status values. A session moves from pending to exactly one
// terminal status; the transition happens at most once per state token.
const (
	SessionPending   = "pending"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
	SessionExpired   = "expired"
)

type AuthSession struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	State     string    `gorm:"size:256;uniqueIndex" json:"state"`
	Status    string    `gorm:"size:20;index;default:'pending'" json:"status"`
	UserID    string    `gorm:"size:255;index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}

func (s *AuthSession) Terminal() bool {
	return s.Status != SessionPending
}
