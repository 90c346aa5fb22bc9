// Package store persists the Up Next queue and the episodes it references.
//
// The queue is an ordered list of episode identities. Every mutation runs in
// a single transaction and leaves positions contiguous from 0 (the playing
// episode) to n-1. Episode identities may resolve to a subscribed-podcast
// episode or a user episode; identities that resolve to neither are dropped
// from query results rather than treated as errors.
package store

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "upnext"
	dbFileName = "upnext.db"
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the store database. dataDir overrides the default
// xdg data location when non-empty.
func Open(dataDir string, log *slog.Logger) (*Store, error) {
	dbPath, err := getDBPath(dataDir)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s, err := New(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database connection. Tests pass a :memory: handle.
func New(db *sql.DB, log *slog.Logger) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle so sibling stores can share one database.
func (s *Store) DB() *sql.DB {
	return s.db
}

func getDBPath(dataDir string) (string, error) {
	if dataDir != "" {
		return filepath.Join(dataDir, dbFileName), nil
	}
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
