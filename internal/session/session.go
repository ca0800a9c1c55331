// Package session holds the signed-in identity and its bearer credential
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredential = errors.New("invalid bearer credential")

// Session is the current login. It is safe for concurrent use and mirrors
// itself into the backing store so a restart can restore it.
type Session struct {
	mu      sync.RWMutex
	store   storage.Store
	token   string
	profile models.Identity
	now     func() time.Time
}

func New(store storage.Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Login adopts token as the current credential. The identity is read from
// the token's claims; the signature is the server's business.
func (s *Session) Login(token string) (models.Identity, error) {
	claims, err := decode(token)
	if err != nil {
		return models.Identity{}, err
	}
	profile := claims.Identity()
	raw, err := json.Marshal(profile)
	if err != nil {
		return models.Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(storage.KeyAccessToken, token); err != nil {
		return models.Identity{}, fmt.Errorf("error saving credential: %w", err)
	}
	if err := s.store.Set(storage.KeyUser, string(raw)); err != nil {
		return models.Identity{}, fmt.Errorf("error saving profile: %w", err)
	}
	s.token, s.profile = token, profile
	return profile, nil
}

// Restore reloads a persisted login. An absent, unreadable or expired
// credential leaves the session logged out and clears what was stored.
func (s *Session) Restore() (models.Identity, bool) {
	token, _ := s.store.Get(storage.KeyAccessToken)
	if token == "" || token == "undefined" || token == "null" {
		_ = s.Logout()
		return models.Identity{}, false
	}
	claims, err := decode(token)
	if err != nil || (claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time)) {
		_ = s.Logout()
		return models.Identity{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.profile = token, claims.Identity()
	return s.profile, true
}

// Logout forgets the credential and the profile. Other persisted keys, such
// as the theme and the confirmation stamps, survive.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.profile = "", models.Identity{}
	return s.store.Delete(storage.KeyAccessToken, storage.KeyUser)
}

// Token returns the bearer credential, empty when logged out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns the signed-in identity
func (s *Session) Profile() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.token != ""
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func decode(token string) (*models.Claims, error) {
	claims := &models.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.ID <= 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing id or role", ErrInvalidCredential)
	}
	return claims, nil
}
