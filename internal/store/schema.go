package store

import (
	"database/sql"
)

const currentSchemaVersion = 3

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS up_next_episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_uuid TEXT NOT NULL UNIQUE,
			position INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_up_next_position ON up_next_episodes(position);

		CREATE TABLE IF NOT EXISTS podcasts (
			uuid TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			sync_status INTEGER NOT NULL DEFAULT 0,
			added_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS podcast_episodes (
			uuid TEXT PRIMARY KEY,
			podcast_uuid TEXT NOT NULL,
			title TEXT NOT NULL,
			download_url TEXT,
			downloaded_file_path TEXT,
			download_status INTEGER NOT NULL DEFAULT 0,
			is_hls INTEGER NOT NULL DEFAULT 0,
			played_up_to_ms INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			published_at INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_podcast_episodes_podcast ON podcast_episodes(podcast_uuid);

		CREATE TABLE IF NOT EXISTS user_episodes (
			uuid TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			download_url TEXT,
			downloaded_file_path TEXT,
			download_status INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			published_at INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add is_hls column if missing
	_, _ = db.Exec(`ALTER TABLE podcast_episodes ADD COLUMN is_hls INTEGER NOT NULL DEFAULT 0`)

	return nil
}
