package store

import (
	"database/sql"
	"errors"
	"fmt"

	dbutil "github.com/npaolucci/upnext/internal/db"
)

// InsertAt adds an episode to the Up Next queue.
//
// position must be PositionTop, PositionNext or PositionLast. Any existing
// entry for the same episode is removed first, so an episode appears in the
// queue at most once. With replaceSingleton set and exactly one queued
// episode, the queue is replaced outright ("play now" over a single item).
func (s *Store) InsertAt(episodeUUID string, position int, replaceSingleton bool) error {
	if position != PositionTop && position != PositionNext && position != PositionLast {
		return fmt.Errorf("insert at %d: position must be 0, 1 or -1", position)
	}

	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		// remove the episode before we add it back at the new position
		if err := deleteByUUIDTx(tx, episodeUUID); err != nil {
			return err
		}

		entries, err := allTx(tx)
		if err != nil {
			return err
		}

		newPosition, updates, clearAll := Reposition(entries, position, replaceSingleton)
		if clearAll {
			if _, err := tx.Exec(`DELETE FROM up_next_episodes`); err != nil {
				return err
			}
		}
		for _, u := range updates {
			if err := s.updatePositionTx(tx, u.ID, u.Position); err != nil {
				return err
			}
		}

		_, err = tx.Exec(
			`INSERT INTO up_next_episodes (episode_uuid, position) VALUES (?, ?)`,
			episodeUUID, newPosition,
		)
		return err
	})
}

// InsertAll appends episodes to the end of the queue in the given order.
// Each insert is atomic on its own; the batch as a whole is not.
func (s *Store) InsertAll(episodeUUIDs []string) error {
	for _, uuid := range episodeUUIDs {
		if err := s.InsertAt(uuid, PositionLast, false); err != nil {
			return fmt.Errorf("insert %s: %w", uuid, err)
		}
	}
	return nil
}

// SaveAll reconciles the queue against a full replacement ordering.
//
// Existing rows keep their row identity and only have their position updated;
// identities missing from the new list are deleted; new identities are
// inserted at their index. Rows whose membership and order did not change are
// left untouched, so metadata attached to them survives and observers do not
// see a full rewrite.
func (s *Store) SaveAll(episodeUUIDs []string) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		entries, err := allTx(tx)
		if err != nil {
			return err
		}
		uuidToID := make(map[string]int64, len(entries))
		uuidToPosition := make(map[string]int, len(entries))
		for _, e := range entries {
			uuidToID[e.EpisodeUUID] = e.ID
			uuidToPosition[e.EpisodeUUID] = e.Position
		}

		keep := make(map[string]bool, len(episodeUUIDs))
		for i, uuid := range episodeUUIDs {
			keep[uuid] = true
			id, ok := uuidToID[uuid]
			if !ok {
				_, err := tx.Exec(
					`INSERT INTO up_next_episodes (episode_uuid, position) VALUES (?, ?)`,
					uuid, i,
				)
				if err != nil {
					return err
				}
				continue
			}
			if uuidToPosition[uuid] == i {
				continue
			}
			if err := s.updatePositionTx(tx, id, i); err != nil {
				return err
			}
		}

		// delete rows whose identity is absent from the new list
		for _, e := range entries {
			if !keep[e.EpisodeUUID] {
				if err := deleteByUUIDTx(tx, e.EpisodeUUID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteByUUID removes one episode from the queue and closes the gap it
// leaves so positions stay contiguous.
func (s *Store) DeleteByUUID(episodeUUID string) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if err := deleteByUUIDTx(tx, episodeUUID); err != nil {
			return err
		}
		return renumberTx(tx)
	})
}

// DeleteAll clears the queue.
func (s *Store) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM up_next_episodes`)
	return err
}

// DeleteAllExceptHead removes everything but the playing episode.
// No-op when the queue is empty.
func (s *Store) DeleteAllExceptHead() error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		var headUUID string
		row := tx.QueryRow(`SELECT episode_uuid FROM up_next_episodes ORDER BY position ASC LIMIT 1`)
		err := row.Scan(&headUUID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM up_next_episodes WHERE episode_uuid != ?`, headUUID); err != nil {
			return err
		}
		return renumberTx(tx)
	})
}

// All returns queue entries ordered by position.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT id, episode_uuid, position FROM up_next_episodes ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindHead returns the entry at position 0, or nil when the queue is empty.
func (s *Store) FindHead() (*Entry, error) {
	row := s.db.QueryRow(`SELECT id, episode_uuid, position FROM up_next_episodes ORDER BY position ASC LIMIT 1`)
	var e Entry
	err := row.Scan(&e.ID, &e.EpisodeUUID, &e.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Contains reports whether the episode is queued.
func (s *Store) Contains(episodeUUID string) (bool, error) {
	var count int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM up_next_episodes WHERE episode_uuid = ?`, episodeUUID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the queue length.
func (s *Store) Count() (int, error) {
	var count int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM up_next_episodes`)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// updatePositionTx moves a row to a new position. Updating a row that no
// longer exists is logged and ignored.
func (s *Store) updatePositionTx(tx *sql.Tx, id int64, position int) error {
	res, err := tx.Exec(`UPDATE up_next_episodes SET position = ? WHERE id = ?`, position, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Warn("queue position update on missing row", "id", id, "position", position)
	}
	return nil
}

func deleteByUUIDTx(tx *sql.Tx, episodeUUID string) error {
	_, err := tx.Exec(`DELETE FROM up_next_episodes WHERE episode_uuid = ?`, episodeUUID)
	return err
}

// renumberTx closes any gaps so positions are 0..n-1 again.
func renumberTx(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id, episode_uuid, position FROM up_next_episodes ORDER BY position ASC`)
	if err != nil {
		return err
	}
	entries, err := scanEntries(rows)
	rows.Close()
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.Position == i {
			continue
		}
		if _, err := tx.Exec(`UPDATE up_next_episodes SET position = ? WHERE id = ?`, i, e.ID); err != nil {
			return err
		}
	}
	return nil
}

func allTx(tx *sql.Tx) ([]Entry, error) {
	rows, err := tx.Query(`SELECT id, episode_uuid, position FROM up_next_episodes ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EpisodeUUID, &e.Position); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
