// Package creds persists the signed-in account and its tokens in sqlite.
// A single-row table holds at most one account at a time.
package creds

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/npaolucci/upnext/internal/db"
	syncpkg "github.com/npaolucci/upnext/internal/sync"
)

var _ syncpkg.CredentialStore = (*Store)(nil)

// Store reads and writes account credentials.
type Store struct {
	db *sql.DB
}

// New creates the credential store and its tables.
func New(database *sql.DB) (*Store, error) {
	s := &Store{db: database}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init credentials schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS account (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			email TEXT NOT NULL,
			user_uuid TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			access_token TEXT NOT NULL DEFAULT '',
			access_token_expires_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS account_data (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	return err
}

// AddAccount records the signed-in account, replacing any previous one.
// Tokens of a replaced account are discarded.
func (s *Store) AddAccount(email, uuid string) error {
	return db.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM account`); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM account_data`); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO account (id, email, user_uuid) VALUES (1, ?, ?)`, email, uuid)
		return err
	})
}

// SetAccessToken stores the access token with its absolute expiry.
// A zero expiresIn means no expiry is known; a negative one records a
// token that is already expired.
func (s *Store) SetAccessToken(token string, expiresIn int64) error {
	expiresAt := int64(0)
	if expiresIn != 0 {
		expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second).Unix()
	}
	return s.requireAccountUpdate(
		`UPDATE account SET access_token = ?, access_token_expires_at = ? WHERE id = 1`,
		token, expiresAt)
}

// SetRefreshToken replaces the stored refresh token.
func (s *Store) SetRefreshToken(token string) error {
	return s.requireAccountUpdate(`UPDATE account SET refresh_token = ? WHERE id = 1`, token)
}

// RefreshToken returns the stored refresh token, empty when signed out.
func (s *Store) RefreshToken() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT refresh_token FROM account WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query refresh token: %w", err)
	}
	return token, nil
}

// AccessToken returns the stored access token and whether it is still
// valid. Tokens without a recorded expiry never expire locally.
func (s *Store) AccessToken() (string, bool, error) {
	var token string
	var expiresAt int64
	err := s.db.QueryRow(`SELECT access_token, access_token_expires_at FROM account WHERE id = 1`).
		Scan(&token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query access token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	valid := expiresAt == 0 || time.Now().Unix() < expiresAt
	return token, valid, nil
}

// Account returns the signed-in email and user uuid, empty when signed out.
func (s *Store) Account() (email, uuid string, err error) {
	err = s.db.QueryRow(`SELECT email, user_uuid FROM account WHERE id = 1`).Scan(&email, &uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("query account: %w", err)
	}
	return email, uuid, nil
}

// SetUserData stores an auxiliary key/value pair scoped to the account.
func (s *Store) SetUserData(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO account_data (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// UserData returns the value for key, empty when unset.
func (s *Store) UserData(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM account_data WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query account data: %w", err)
	}
	return value, nil
}

// SignOut removes the account and everything stored alongside it.
func (s *Store) SignOut() error {
	return db.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM account`); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM account_data`)
		return err
	})
}

func (s *Store) requireAccountUpdate(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no account signed in")
	}
	return nil
}
