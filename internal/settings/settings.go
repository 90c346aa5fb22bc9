// Package settings is a small key/value store for app settings and the
// sync watermarks that govern incremental refreshes.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	syncpkg "github.com/npaolucci/upnext/internal/sync"
)

const (
	keyUsedAccountManager = "used_account_manager"
	keyLastModified       = "last_modified"
	keyLastRefreshTime    = "last_refresh_time"
)

var _ syncpkg.Watermarks = (*Store)(nil)

// Store reads and writes settings keys.
type Store struct {
	db *sql.DB
}

// New creates the settings store and its table.
func New(database *sql.DB) (*Store, error) {
	s := &Store{db: database}
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("init settings schema: %w", err)
	}
	return s, nil
}

// SetUsedAccountManager records that a real account has signed in at least
// once on this install.
func (s *Store) SetUsedAccountManager(used bool) error {
	return s.set(keyUsedAccountManager, strconv.FormatBool(used))
}

// UsedAccountManager reports whether an account has ever signed in here.
func (s *Store) UsedAccountManager() (bool, error) {
	v, err := s.get(keyUsedAccountManager)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SetLastModified stores the server change cursor from the last sync.
func (s *Store) SetLastModified(value string) error {
	return s.set(keyLastModified, value)
}

// LastModified returns the stored change cursor, empty when a full sync
// is due.
func (s *Store) LastModified() (string, error) {
	return s.get(keyLastModified)
}

// ClearLastModified forces the next sync to pull everything.
func (s *Store) ClearLastModified() error {
	return s.delete(keyLastModified)
}

// SetLastRefreshTime stores the unix time of the last completed refresh.
func (s *Store) SetLastRefreshTime(unixSec int64) error {
	return s.set(keyLastRefreshTime, strconv.FormatInt(unixSec, 10))
}

// LastRefreshTime returns the unix time of the last refresh, zero when
// none has completed.
func (s *Store) LastRefreshTime() (int64, error) {
	v, err := s.get(keyLastRefreshTime)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last refresh time: %w", err)
	}
	return n, nil
}

// ClearLastRefreshTime forgets when the last refresh ran.
func (s *Store) ClearLastRefreshTime() error {
	return s.delete(keyLastRefreshTime)
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}
