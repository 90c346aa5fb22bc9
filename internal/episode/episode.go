// Package episode defines the playable item model shared by the queue and
// the player. A playable is either an episode of a subscribed podcast or a
// file the user uploaded themselves; both are addressed by an opaque uuid.
package episode

import (
	"time"

	"github.com/google/uuid"
)

// Playable is implemented by anything the player can load.
type Playable interface {
	UUID() string
	Title() string
	IsHLS() bool
	IsDownloaded() bool
	DownloadURL() string
	DownloadedFilePath() string
	Duration() time.Duration
}

// DownloadStatus tracks the local download state of an episode.
type DownloadStatus int

const (
	NotDownloaded DownloadStatus = iota
	Downloading
	Downloaded
)

// PodcastEpisode is an episode belonging to a subscribed podcast.
type PodcastEpisode struct {
	Uuid          string
	PodcastUuid   string
	EpisodeTitle  string
	URL           string
	FilePath      string
	Status        DownloadStatus
	HLS           bool
	PlayedUpTo    time.Duration
	EpisodeLength time.Duration
	PublishedAt   time.Time
}

func (e PodcastEpisode) UUID() string               { return e.Uuid }
func (e PodcastEpisode) Title() string              { return e.EpisodeTitle }
func (e PodcastEpisode) IsHLS() bool                { return e.HLS }
func (e PodcastEpisode) IsDownloaded() bool         { return e.Status == Downloaded && e.FilePath != "" }
func (e PodcastEpisode) DownloadURL() string        { return e.URL }
func (e PodcastEpisode) DownloadedFilePath() string { return e.FilePath }
func (e PodcastEpisode) Duration() time.Duration    { return e.EpisodeLength }

// UserEpisode is a file the user uploaded to their own account.
type UserEpisode struct {
	Uuid          string
	EpisodeTitle  string
	URL           string
	FilePath      string
	Status        DownloadStatus
	EpisodeLength time.Duration
	PublishedAt   time.Time
}

// NewUserEpisode creates a user episode with a fresh identity.
func NewUserEpisode(title, filePath string) UserEpisode {
	return UserEpisode{
		Uuid:         uuid.NewString(),
		EpisodeTitle: title,
		FilePath:     filePath,
		Status:       Downloaded,
		PublishedAt:  time.Now(),
	}
}

func (e UserEpisode) UUID() string               { return e.Uuid }
func (e UserEpisode) Title() string              { return e.EpisodeTitle }
func (e UserEpisode) IsHLS() bool                { return false }
func (e UserEpisode) IsDownloaded() bool         { return e.Status == Downloaded && e.FilePath != "" }
func (e UserEpisode) DownloadURL() string        { return e.URL }
func (e UserEpisode) DownloadedFilePath() string { return e.FilePath }
func (e UserEpisode) Duration() time.Duration    { return e.EpisodeLength }

// Verify both variants implement Playable at compile time.
var (
	_ Playable = PodcastEpisode{}
	_ Playable = UserEpisode{}
)
