package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"authbridge/config"
	"authbridge/models"
	"authbridge/provider"
	"authbridge/store"
	"authbridge/utils"
)

// ErrInvalidCallback rejects a provider redirect that is malformed,
// references an unknown state token, or replays one already resolved.
var ErrInvalidCallback = errors.New("invalid oauth callback")

// Authentication states reported by Status.
const (
	StateUnauthenticated = "unauthenticated"
	StateAuthenticated   = "authenticated"
	StateExpired         = "expired"
)

// tokenExpiryMargin triggers refresh before the access token actually
// expires, so a token handed to the consumer stays valid long enough to
// be used.
const tokenExpiryMargin = 5 * time.Minute

type StatusResult struct {
	State       string    `json:"state"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Name        string    `json:"name,omitempty"`
	Refreshed   bool      `json:"refreshed,omitempty"`
}

// Broker drives the authorization-code flow end to end: it issues
// authorization URLs, resolves provider callbacks into stored
// credentials, and answers consumer status polls with a usable token.
type Broker struct {
	credentials *store.CredentialStore
	sessions    *store.SessionStore
	provider    *provider.Client
	pendingTTL  time.Duration
}

func NewBroker(db *gorm.DB, client *provider.Client) *Broker {
	return &Broker{
		credentials: store.NewCredentialStore(db),
		sessions:    store.NewSessionStore(db),
		provider:    client,
		pendingTTL:  config.Session.PendingTTL,
	}
}

func (b *Broker) Credentials() *store.CredentialStore {
	return b.credentials
}

func (b *Broker) Sessions() *store.SessionStore {
	return b.sessions
}

// Begin creates a pending session bound to userID and returns the
// provider authorization URL carrying its state token. The session is
// persisted before the URL is returned.
func (b *Broker) Begin(userID string) (authURL, state string, err error) {
	if v := utils.ValidateUserID(userID); v.HasErrors() {
		return "", "", fmt.Errorf("invalid user_id: %s", v.Error())
	}

	state, err = utils.GenerateStateToken()
	if err != nil {
		return "", "", err
	}

	authURL, err = b.provider.BuildAuthURL(state)
	if err != nil {
		return "", "", err
	}

	if _, err := b.sessions.Create(state, userID, b.pendingTTL); err != nil {
		return "", "", err
	}

	return authURL, state, nil
}

// HandleCallback resolves a provider redirect. The state token is
// consumed whatever the outcome: success completes the session and
// upserts the credential; exchange failure fails the session; unknown
// or already-terminal state tokens are rejected without touching the
// stored record. Returns the user id the flow was begun for.
func (b *Broker) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", fmt.Errorf("%w: missing code or state", ErrInvalidCallback)
	}

	session, err := b.sessions.Get(state)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return "", fmt.Errorf("%w: unknown state token", ErrInvalidCallback)
		}
		return "", err
	}
	if session.Terminal() {
		return session.UserID, fmt.Errorf("%w: state token already consumed (status %s)", ErrInvalidCallback, session.Status)
	}

	token, err := b.provider.Exchange(ctx, code)
	if err != nil {
		if failErr := b.sessions.Fail(state); failErr != nil && !errors.Is(failErr, store.ErrSessionConflict) {
			log.Printf("Warning: failed to mark session failed: %v", failErr)
		}
		return session.UserID, err
	}

	// Claim the pending -> completed transition before writing the
	// credential. If another callback won the race, no write happens
	// here and exactly one completed transition survives.
	if err := b.sessions.Complete(state); err != nil {
		if errors.Is(err, store.ErrSessionConflict) || errors.Is(err, store.ErrSessionNotFound) {
			return session.UserID, fmt.Errorf("%w: state token already consumed", ErrInvalidCallback)
		}
		return session.UserID, err
	}

	cred := &store.Credential{
		UserID:       session.UserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		Scopes:       token.Scope,
	}
	if cred.Scopes == "" {
		cred.Scopes = b.provider.Scopes()
	}

	// Best-effort profile enrichment; the exchange outcome stands even
	// if userinfo is unavailable.
	if info, err := b.provider.FetchUserInfo(ctx, token.AccessToken); err == nil {
		cred.Name = info.Name
		cred.Picture = info.Picture
	} else {
		log.Printf("Note: userinfo fetch failed for %s: %v", session.UserID, err)
	}

	if err := b.credentials.Put(cred); err != nil {
		return session.UserID, err
	}

	return session.UserID, nil
}

// Status answers the consumer poll for userID. Fast, non-blocking
// lookup except when a near-expiry credential with a refresh token
// triggers a single lazy refresh.
func (b *Broker) Status(ctx context.Context, userID string) (*StatusResult, error) {
	cred, err := b.credentials.Get(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &StatusResult{State: StateUnauthenticated}, nil
		}
		return nil, err
	}

	if time.Now().Add(tokenExpiryMargin).Before(cred.ExpiresAt) {
		return &StatusResult{
			State:       StateAuthenticated,
			AccessToken: cred.AccessToken,
			ExpiresAt:   cred.ExpiresAt,
			Name:        cred.Name,
		}, nil
	}

	if cred.RefreshToken == "" {
		return &StatusResult{State: StateExpired}, nil
	}

	refreshed, err := b.refresh(ctx, cred)
	if err != nil {
		utils.LogTokenEvent(models.AuditActionTokenRefresh, userID, "", "", false, map[string]interface{}{
			"error": err.Error(),
		})
		return &StatusResult{State: StateExpired}, nil
	}

	utils.LogTokenEvent(models.AuditActionTokenRefresh, userID, "", "", true, nil)

	return &StatusResult{
		State:       StateAuthenticated,
		AccessToken: refreshed.AccessToken,
		ExpiresAt:   refreshed.ExpiresAt,
		Name:        refreshed.Name,
		Refreshed:   true,
	}, nil
}

// refresh performs one refresh grant and rewrites the stored token
// fields. The refresh token carries over unless the provider issued a
// replacement. No retry here: a failed refresh means the caller sees
// expired and decides whether to re-initiate authorization.
func (b *Broker) refresh(ctx context.Context, cred *store.Credential) (*store.Credential, error) {
	token, err := b.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	cred.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.Scope != "" {
		cred.Scopes = token.Scope
	}

	if err := b.credentials.Put(cred); err != nil {
		return nil, err
	}

	return cred, nil
}

// Import writes operator-supplied tokens straight into the store,
// bypassing the redirect flow. No provider-side validation happens
// here; an invalid token surfaces on first use.
func (b *Broker) Import(userID, accessToken, refreshToken string, expiresAt time.Time) error {
	if v := utils.ValidateUserID(userID); v.HasErrors() {
		return fmt.Errorf("invalid user_id: %s", v.Error())
	}
	if accessToken == "" {
		return fmt.Errorf("access_token is required")
	}

	if expiresAt.IsZero() {
		// Google access tokens live an hour; assume a fresh one.
		expiresAt = time.Now().Add(time.Hour)
	}

	return b.credentials.Put(&store.Credential{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Scopes:       b.provider.Scopes(),
	})
}

// Disconnect revokes the stored token provider-side (best effort) and
// deletes the credential.
func (b *Broker) Disconnect(ctx context.Context, userID string) error {
	cred, err := b.credentials.Get(userID)
	if err != nil {
		return err
	}

	if err := b.provider.Revoke(ctx, cred.AccessToken); err != nil {
		log.Printf("Warning: token revocation failed for %s: %v", userID, err)
	}

	return b.credentials.Delete(userID)
}
