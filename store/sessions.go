package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"authbridge/models"
)

var (
	// ErrSessionNotFound means the state token was never issued (or was
	// purged); the session record is left untouched.
	ErrSessionNotFound = errors.New("auth session not found")

	// ErrSessionConflict means the pending -> terminal transition was
	// already performed by another caller. At most one caller wins.
	ErrSessionConflict = errors.New("auth session already resolved")
)

// SessionStore tracks in-flight authorization attempts. Status moves
// from pending to exactly one terminal value; the transition is a
// single UPDATE guarded on status='pending', so concurrent callbacks on
// the same state token cannot both succeed.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create persists a pending session before the authorization URL is
// handed out, so a callback arriving immediately always finds it.
func (s *SessionStore) Create(state, userID string, ttl time.Duration) (*models.AuthSession, error) {
	session := &models.AuthSession{
		State:     state,
		Status:    models.SessionPending,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to save auth session: %w", err)
	}

	return session, nil
}

func (s *SessionStore) Get(state string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := s.db.Where("state = ?", state).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lookup auth session: %w", err)
	}
	return &session, nil
}

// Complete marks the session completed iff it is still pending.
func (s *SessionStore) Complete(state string) error {
	return s.transition(state, models.SessionCompleted)
}

// Fail marks the session failed iff it is still pending.
func (s *SessionStore) Fail(state string) error {
	return s.transition(state, models.SessionFailed)
}

func (s *SessionStore) transition(state, status string) error {
	result := s.db.Model(&models.AuthSession{}).
		Where("state = ? AND status = ?", state, models.SessionPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update auth session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var session models.AuthSession
		if err := s.db.Where("state = ?", state).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lookup auth session: %w", err)
		}
		return ErrSessionConflict
	}
	return nil
}

// ExpireStale reclaims pending sessions whose validity window has
// passed. Safe to run concurrently with live callback handling: it only
// touches rows already past their expiry, using the same guarded UPDATE
// as Complete/Fail.
func (s *SessionStore) ExpireStale(now time.Time) (int64, error) {
	result := s.db.Model(&models.AuthSession{}).
		Where("status = ? AND expires_at < ?", models.SessionPending, now).
		Updates(map[string]interface{}{
			"status":     models.SessionExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire stale sessions: %w", result.Error)
	}
	return result.RowsAffected, result.Error
}

// PurgeTerminal deletes terminal sessions older than the cutoff.
func (s *SessionStore) PurgeTerminal(cutoff time.Time) (int64, error) {
	result := s.db.
		Where("status <> ? AND created_at < ?", models.SessionPending, cutoff).
		Delete(&models.AuthSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge terminal sessions: %w", result.Error)
	}
	return result.RowsAffected, result.Error
}

func (s *SessionStore) CountByStatus(status string) (int64, error) {
	var count int64
	err := s.db.Model(&models.AuthSession{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
