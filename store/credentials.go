package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"authbridge/models"
	"authbridge/utils"
)

// ErrNotFound is returned when no credential exists for a user. Callers
// map it to the unauthenticated state; it is not a failure.
var ErrNotFound = errors.New("credential not found")

// Credential is the decrypted view handed to callers. Token fields are
// plaintext here and ciphertext in models.Credential.
type Credential struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       string
	Name         string
	Picture      string
}

// CredentialStore is the sole writer of the credentials table. Writes
// are single-statement upserts keyed by user_id, so readers never
// observe a half-written record.
type CredentialStore struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Get(userID string) (*Credential, error) {
	var record models.Credential
	if err := s.db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	accessToken, err := utils.Decrypt(record.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	var refreshToken string
	if record.RefreshToken != "" {
		refreshToken, err = utils.Decrypt(record.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
	}

	return &Credential{
		UserID:       record.UserID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    record.ExpiresAt,
		Scopes:       record.Scopes,
		Name:         record.Name,
		Picture:      record.Picture,
	}, nil
}

// Put upserts the credential for cred.UserID. An existing row keeps its
// refresh token when the new credential carries none (the provider only
// issues one on the first consent).
func (s *CredentialStore) Put(cred *Credential) error {
	if cred.UserID == "" {
		return fmt.Errorf("credential has no user id")
	}

	encryptedAccess, err := utils.Encrypt(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	var encryptedRefresh string
	if cred.RefreshToken != "" {
		encryptedRefresh, err = utils.Encrypt(cred.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	record := models.Credential{
		UserID:       cred.UserID,
		AccessToken:  encryptedAccess,
		RefreshToken: encryptedRefresh,
		ExpiresAt:    cred.ExpiresAt,
		Scopes:       cred.Scopes,
		Name:         cred.Name,
		Picture:      cred.Picture,
	}

	assignments := map[string]interface{}{
		"access_token": record.AccessToken,
		"expires_at":   record.ExpiresAt,
		"scopes":       record.Scopes,
		"updated_at":   time.Now(),
	}
	if record.RefreshToken != "" {
		assignments["refresh_token"] = record.RefreshToken
	}
	if record.Name != "" {
		assignments["name"] = record.Name
	}
	if record.Picture != "" {
		assignments["picture"] = record.Picture
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

func (s *CredentialStore) Delete(userID string) error {
	result := s.db.Where("user_id = ?", userID).Delete(&models.Credential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserSummary lists stored accounts without exposing token values.
type UserSummary struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	HasToken   bool      `json:"has_token"`
	HasRefresh bool      `json:"has_refresh"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *CredentialStore) List() ([]UserSummary, error) {
	var records []models.Credential
	if err := s.db.Order("user_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	summaries := make([]UserSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, UserSummary{
			UserID:     r.UserID,
			Name:       r.Name,
			HasToken:   r.AccessToken != "",
			HasRefresh: r.RefreshToken != "",
			ExpiresAt:  r.ExpiresAt,
		})
	}
	return summaries, nil
}

func (s *CredentialStore) Count() (int64, error) {
	var count int64
	err := s.db.Model(&models.Credential{}).Count(&count).Error
	return count, err
}
