package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"authbridge/config"
	"authbridge/store"
)

// SessionSweeper reclaims stale authorization sessions in the
// background: pending sessions past their validity window become
// expired, and terminal sessions past the retention window are purged.
// This is the broker's only background task.
type SessionSweeper struct {
	sessions  *store.SessionStore
	interval  time.Duration
	retention time.Duration
}

func NewSessionSweeper(db *gorm.DB) *SessionSweeper {
	return &SessionSweeper{
		sessions:  store.NewSessionStore(db),
		interval:  config.Session.SweepInterval,
		retention: config.Session.TerminalRetention,
	}
}

// Run loops until ctx is cancelled. Safe to run concurrently with live
// callback handling; every sweep statement is guarded on status, so a
// session being resolved right now is never touched.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}

// Sweep performs one pass. Exposed separately so tests and operators
// can trigger it without the ticker.
func (s *SessionSweeper) Sweep(now time.Time) {
	expired, err := s.sessions.ExpireStale(now)
	if err != nil {
		log.Printf("Session sweep: expire failed: %v", err)
	} else if expired > 0 {
		log.Printf("Session sweep: %d stale pending sessions expired", expired)
	}

	purged, err := s.sessions.PurgeTerminal(now.Add(-s.retention))
	if err != nil {
		log.Printf("Session sweep: purge failed: %v", err)
	} else if purged > 0 {
		log.Printf("Session sweep: %d terminal sessions purged", purged)
	}
}
