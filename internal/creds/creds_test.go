package creds

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := New(db)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	token, err := s.RefreshToken()
	require.NoError(t, err)
	assert.Empty(t, token)

	email, uuid, err := s.Account()
	require.NoError(t, err)
	assert.Empty(t, email)
	assert.Empty(t, uuid)

	value, err := s.UserData("client_id")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestTokenWritesRequireAnAccount(t *testing.T) {
	s := newTestStore(t)

	assert.Error(t, s.SetRefreshToken("refresh-1"))
	assert.Error(t, s.SetAccessToken("access-1", 3600))
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddAccount("user@example.com", "user-uuid"))
	require.NoError(t, s.SetRefreshToken("refresh-1"))
	require.NoError(t, s.SetAccessToken("access-1", 3600))
	require.NoError(t, s.SetUserData("client_id", "pocketcasts"))

	email, uuid, err := s.Account()
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
	assert.Equal(t, "user-uuid", uuid)

	token, err := s.RefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", token)

	access, valid, err := s.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)
	assert.True(t, valid)

	value, err := s.UserData("client_id")
	require.NoError(t, err)
	assert.Equal(t, "pocketcasts", value)
}

func TestAccessTokenExpiry(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddAccount("user@example.com", "user-uuid"))

	// already expired
	require.NoError(t, s.SetAccessToken("access-1", -10))
	_, valid, err := s.AccessToken()
	require.NoError(t, err)
	assert.False(t, valid)

	// no expiry recorded means locally valid
	require.NoError(t, s.SetAccessToken("access-2", 0))
	token, valid, err := s.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.True(t, valid)
}

func TestAddAccountReplacesPreviousOne(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddAccount("old@example.com", "old-uuid"))
	require.NoError(t, s.SetRefreshToken("old-refresh"))
	require.NoError(t, s.SetUserData("client_id", "pocketcasts"))

	require.NoError(t, s.AddAccount("new@example.com", "new-uuid"))

	email, _, err := s.Account()
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", email)

	token, err := s.RefreshToken()
	require.NoError(t, err)
	assert.Empty(t, token, "old tokens do not leak into the new account")

	value, err := s.UserData("client_id")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSignOut(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddAccount("user@example.com", "user-uuid"))
	require.NoError(t, s.SetRefreshToken("refresh-1"))
	require.NoError(t, s.SignOut())

	email, _, err := s.Account()
	require.NoError(t, err)
	assert.Empty(t, email)

	token, err := s.RefreshToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}
