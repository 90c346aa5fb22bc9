package playback

import (
	"github.com/npaolucci/upnext/internal/episode"
)

// Service defines the playback orchestrator contract. It owns the Up Next
// queue position, selects a fresh player for each episode, and forwards
// player events to subscribers.
type Service interface {
	// Queue + playback control
	PlayNow(e episode.Playable) error  // replaces the head, starts playback
	PlayNext(e episode.Playable) error // inserts at position 1, head untouched
	PlayLast(e episode.Playable) error // appends to the queue
	Pause() error
	Resume() error
	Stop() error
	SkipToNext() error
	SeekToMs(positionMs int) error

	// State queries
	State() State
	CurrentEpisodeUUID() string
	PositionMs() int

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
