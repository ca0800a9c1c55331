package session_test

import (
	"testing"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/session"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, id int64, role models.Role, exp time.Time) string {
	claims := models.Claims{
		ID:               id,
		Name:             "Uma",
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any"))
	require.NoError(t, err)
	return token
}

func TestLoginPersistsIdentity(t *testing.T) {
	store := storage.NewMemoryStore()
	s := session.New(store)

	profile, err := s.Login(sign(t, 7, models.RoleAdmin, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: 7, Name: "Uma", Role: models.RoleAdmin}, profile)
	assert.True(t, s.LoggedIn())

	raw, ok := store.Get(storage.KeyUser)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7,"name":"Uma","role":"admin"}`, raw)

	// a fresh session over the same store picks the login back up
	restored, ok := session.New(store).Restore()
	assert.True(t, ok)
	assert.Equal(t, profile, restored)
}

func TestLoginRejectsGarbage(t *testing.T) {
	s := session.New(storage.NewMemoryStore())
	_, err := s.Login("not-a-jwt")
	assert.ErrorIs(t, err, session.ErrInvalidCredential)

	_, err = s.Login(sign(t, 0, models.RoleUser, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, session.ErrInvalidCredential)
	assert.False(t, s.LoggedIn())
}

func TestRestoreDropsStaleCredentials(t *testing.T) {
	for name, token := range map[string]string{
		"empty":     "",
		"undefined": "undefined",
		"expired":   sign(t, 3, models.RoleUser, time.Now().Add(-time.Minute)),
	} {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(storage.KeyAccessToken, token))
			require.NoError(t, store.Set(storage.KeyUser, `{"id":3}`))

			_, ok := session.New(store).Restore()
			assert.False(t, ok)
			_, found := store.Get(storage.KeyUser)
			assert.False(t, found)
		})
	}
}

func TestLogoutKeepsPreferences(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.KeyThemeMode, "dark"))
	require.NoError(t, storage.StampConfirmed(store, 1, time.Now()))

	s := session.New(store)
	_, err := s.Login(sign(t, 5, models.RoleUser, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, s.Logout())

	assert.Empty(t, s.Token())
	_, ok := s.Profile()
	assert.False(t, ok)
	assert.Equal(t, storage.ThemeDark, storage.Theme(store))
	assert.Len(t, storage.ConfirmTimes(store), 1)
}
