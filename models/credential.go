package models

import (
	"time"
)

// Credential holds the OAuth tokens issued for a single user. Token
// columns store ciphertext (see utils.Encrypt); at most one row exists
// per user_id.
type Credential struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string    `gorm:"size:255;uniqueIndex" json:"user_id"`
	AccessToken  string    `gorm:"type:text" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       string    `gorm:"type:text" json:"scopes"`
	Name         string    `gorm:"size:255" json:"name"`
	Picture      string    `gorm:"size:500" json:"picture"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}
