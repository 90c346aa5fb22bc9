package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/npaolucci/upnext/internal/db"
	"github.com/npaolucci/upnext/internal/episode"
)

// UpsertPodcast records a subscribed podcast.
func (s *Store) UpsertPodcast(uuid, title string) error {
	_, err := s.db.Exec(`
		INSERT INTO podcasts (uuid, title, sync_status, added_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(uuid) DO UPDATE SET title = excluded.title
	`, uuid, title, time.Now().Unix())
	return err
}

// MarkAllPodcastsUnsynced flags every podcast for re-sync. Called after a
// sign-in so the next refresh pulls the full subscription state.
func (s *Store) MarkAllPodcastsUnsynced() error {
	_, err := s.db.Exec(`UPDATE podcasts SET sync_status = 0`)
	return err
}

// UpsertPodcastEpisode records or refreshes a podcast episode.
func (s *Store) UpsertPodcastEpisode(e episode.PodcastEpisode) error {
	_, err := s.db.Exec(`
		INSERT INTO podcast_episodes
			(uuid, podcast_uuid, title, download_url, downloaded_file_path, download_status, is_hls, played_up_to_ms, duration_ms, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			podcast_uuid = excluded.podcast_uuid,
			title = excluded.title,
			download_url = excluded.download_url,
			downloaded_file_path = excluded.downloaded_file_path,
			download_status = excluded.download_status,
			is_hls = excluded.is_hls,
			played_up_to_ms = excluded.played_up_to_ms,
			duration_ms = excluded.duration_ms,
			published_at = excluded.published_at
	`, e.Uuid, e.PodcastUuid, e.EpisodeTitle, e.URL, e.FilePath, int(e.Status), boolToInt(e.HLS),
		e.PlayedUpTo.Milliseconds(), e.EpisodeLength.Milliseconds(), e.PublishedAt.Unix())
	return err
}

// UpsertUserEpisode records or refreshes a user episode.
func (s *Store) UpsertUserEpisode(e episode.UserEpisode) error {
	_, err := s.db.Exec(`
		INSERT INTO user_episodes
			(uuid, title, download_url, downloaded_file_path, download_status, duration_ms, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			title = excluded.title,
			download_url = excluded.download_url,
			downloaded_file_path = excluded.downloaded_file_path,
			download_status = excluded.download_status,
			duration_ms = excluded.duration_ms,
			published_at = excluded.published_at
	`, e.Uuid, e.EpisodeTitle, e.URL, e.FilePath, int(e.Status),
		e.EpisodeLength.Milliseconds(), e.PublishedAt.Unix())
	return err
}

// SetPlayedUpTo persists the playback position of a podcast episode.
func (s *Store) SetPlayedUpTo(episodeUUID string, playedUpTo time.Duration) error {
	_, err := s.db.Exec(
		`UPDATE podcast_episodes SET played_up_to_ms = ? WHERE uuid = ?`,
		playedUpTo.Milliseconds(), episodeUUID,
	)
	return err
}

// ResolvedEpisodes resolves up to limit queue entries, in queue order,
// against the podcast and user episode tables. Identities that resolve to
// neither table (deleted episodes) are dropped silently.
func (s *Store) ResolvedEpisodes(limit int) ([]episode.Playable, error) {
	var resolved []episode.Playable
	err := dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		rows, err := tx.Query(
			`SELECT episode_uuid, position FROM up_next_episodes ORDER BY position ASC LIMIT ?`,
			limit,
		)
		if err != nil {
			return err
		}
		var uuids []string
		uuidToPosition := make(map[string]int)
		for rows.Next() {
			var uuid string
			var position int
			if err := rows.Scan(&uuid, &position); err != nil {
				rows.Close()
				return err
			}
			uuids = append(uuids, uuid)
			uuidToPosition[uuid] = position
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(uuids) == 0 {
			return nil
		}

		podcastEpisodes, err := findPodcastEpisodesTx(tx, uuids)
		if err != nil {
			return err
		}
		playables := make([]episode.Playable, 0, len(uuids))
		for _, e := range podcastEpisodes {
			playables = append(playables, e)
		}
		if len(podcastEpisodes) != len(uuids) {
			userEpisodes, err := findUserEpisodesTx(tx, uuids)
			if err != nil {
				return err
			}
			for _, e := range userEpisodes {
				playables = append(playables, e)
			}
		}

		ordered := make([]episode.Playable, len(uuids))
		for _, p := range playables {
			ordered[uuidToPosition[p.UUID()]] = p
		}
		for _, p := range ordered {
			if p != nil {
				resolved = append(resolved, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func findPodcastEpisodesTx(tx *sql.Tx, uuids []string) ([]episode.PodcastEpisode, error) {
	query := fmt.Sprintf(`
		SELECT uuid, podcast_uuid, title, download_url, downloaded_file_path, download_status, is_hls, played_up_to_ms, duration_ms, published_at
		FROM podcast_episodes WHERE uuid IN (%s)`, placeholders(len(uuids)))
	rows, err := tx.Query(query, uuidArgs(uuids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []episode.PodcastEpisode
	for rows.Next() {
		var e episode.PodcastEpisode
		var url, filePath sql.NullString
		var status, isHLS int
		var playedUpToMs, durationMs, publishedAt int64
		err := rows.Scan(&e.Uuid, &e.PodcastUuid, &e.EpisodeTitle, &url, &filePath, &status, &isHLS,
			&playedUpToMs, &durationMs, &publishedAt)
		if err != nil {
			return nil, err
		}
		e.URL = dbutil.NullStringValue(url)
		e.FilePath = dbutil.NullStringValue(filePath)
		e.Status = episode.DownloadStatus(status)
		e.HLS = isHLS != 0
		e.PlayedUpTo = time.Duration(playedUpToMs) * time.Millisecond
		e.EpisodeLength = time.Duration(durationMs) * time.Millisecond
		e.PublishedAt = time.Unix(publishedAt, 0)
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func findUserEpisodesTx(tx *sql.Tx, uuids []string) ([]episode.UserEpisode, error) {
	query := fmt.Sprintf(`
		SELECT uuid, title, download_url, downloaded_file_path, download_status, duration_ms, published_at
		FROM user_episodes WHERE uuid IN (%s)`, placeholders(len(uuids)))
	rows, err := tx.Query(query, uuidArgs(uuids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []episode.UserEpisode
	for rows.Next() {
		var e episode.UserEpisode
		var url, filePath sql.NullString
		var status int
		var durationMs, publishedAt int64
		err := rows.Scan(&e.Uuid, &e.EpisodeTitle, &url, &filePath, &status, &durationMs, &publishedAt)
		if err != nil {
			return nil, err
		}
		e.URL = dbutil.NullStringValue(url)
		e.FilePath = dbutil.NullStringValue(filePath)
		e.Status = episode.DownloadStatus(status)
		e.EpisodeLength = time.Duration(durationMs) * time.Millisecond
		e.PublishedAt = time.Unix(publishedAt, 0)
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func uuidArgs(uuids []string) []any {
	args := make([]any, len(uuids))
	for i, u := range uuids {
		args[i] = u
	}
	return args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
