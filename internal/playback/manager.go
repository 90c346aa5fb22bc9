package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/npaolucci/upnext/internal/episode"
	"github.com/npaolucci/upnext/internal/player"
	"github.com/npaolucci/upnext/internal/store"
)

// ErrNothingPlaying is returned by commands that need an active episode.
var ErrNothingPlaying = errors.New("nothing playing")

// Verify Manager implements Service at compile time.
var _ Service = (*Manager)(nil)

// Manager advances the Up Next queue, owns the active player and fans its
// events out to subscribers. Each episode gets a fresh player instance;
// engines are never reused across episodes.
type Manager struct {
	mu sync.Mutex

	store      *store.Store
	newEngine  player.EngineFactory
	log        *slog.Logger
	queueLimit int

	current     *player.LocalPlayer
	currentStop chan struct{}
	uuid        string
	state       State

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// NewManager creates a playback manager over the given queue store.
func NewManager(s *store.Store, factory player.EngineFactory, queueLimit int, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if queueLimit <= 0 {
		queueLimit = 100
	}
	return &Manager{
		store:      s,
		newEngine:  factory,
		log:        log,
		queueLimit: queueLimit,
		done:       make(chan struct{}),
	}
}

// PlayNow puts the episode at the head of the queue and starts playing it.
// A queue holding a single other episode is replaced outright.
func (m *Manager) PlayNow(e episode.Playable) error {
	if err := m.store.InsertAt(e.UUID(), store.PositionTop, true); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startEpisodeLocked(e)
	return nil
}

// PlayNext queues the episode right after the playing one.
func (m *Manager) PlayNext(e episode.Playable) error {
	return m.store.InsertAt(e.UUID(), store.PositionNext, false)
}

// PlayLast appends the episode to the queue.
func (m *Manager) PlayLast(e episode.Playable) error {
	return m.store.InsertAt(e.UUID(), store.PositionLast, false)
}

func (m *Manager) Pause() error {
	m.mu.Lock()
	current, uuid := m.current, m.uuid
	m.mu.Unlock()
	if current == nil {
		return ErrNothingPlaying
	}
	current.Pause()
	return m.persistPosition(uuid, current.CurrentPositionMs())
}

func (m *Manager) Resume() error {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil {
		return ErrNothingPlaying
	}
	current.Play(current.CurrentPositionMs())
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	uuid, pos := m.uuid, m.current.CurrentPositionMs()
	m.stopCurrentLocked()
	m.setStateLocked(StateStopped)
	return m.persistPosition(uuid, pos)
}

// SkipToNext finishes the playing episode early and advances the queue.
func (m *Manager) SkipToNext() error {
	m.mu.Lock()
	uuid := m.uuid
	m.mu.Unlock()
	if uuid == "" {
		return ErrNothingPlaying
	}
	m.advance(uuid)
	return nil
}

func (m *Manager) SeekToMs(positionMs int) error {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil {
		return ErrNothingPlaying
	}
	current.SeekToTimeMs(positionMs)
	return nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) CurrentEpisodeUUID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uuid
}

func (m *Manager) PositionMs() int {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil {
		return 0
	}
	return current.CurrentPositionMs()
}

// Subscribe creates a new event subscription.
func (m *Manager) Subscribe() *Subscription {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	sub := newSubscription()
	m.subs = append(m.subs, sub)
	return sub
}

// Close shuts down the manager and all subscriptions.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.stopCurrentLocked()
	close(m.done)
	m.mu.Unlock()

	m.subsMu.Lock()
	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = nil
	m.subsMu.Unlock()

	return nil
}

// startEpisodeLocked swaps in a fresh player for the episode and starts
// playback from its last played position.
func (m *Manager) startEpisodeLocked(e episode.Playable) {
	previous := m.uuid
	m.stopCurrentLocked()

	pl := player.New(m.newEngine, m.log)
	pl.SetEpisode(e)

	stop := make(chan struct{})
	m.current = pl
	m.currentStop = stop
	m.uuid = e.UUID()

	go m.watch(pl, e.UUID(), stop)

	m.forEachSub(func(s *Subscription) {
		s.sendEpisode(EpisodeChange{PreviousUUID: previous, UUID: e.UUID(), Title: e.Title()})
	})

	pl.Play(resumePositionMs(e))
}

func (m *Manager) stopCurrentLocked() {
	if m.current == nil {
		return
	}
	m.current.Stop()
	close(m.currentStop)
	m.current = nil
	m.currentStop = nil
	m.uuid = ""
}

// watch translates one player's event stream into subscriber events until
// the player is replaced or the manager closes.
func (m *Manager) watch(pl *player.LocalPlayer, uuid string, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-m.done:
			return
		case ev := <-pl.Events():
			m.handleEvent(uuid, ev)
		}
	}
}

func (m *Manager) handleEvent(uuid string, ev player.Event) {
	switch e := ev.(type) {
	case player.PlayerPlaying:
		m.mu.Lock()
		m.setStateLocked(StatePlaying)
		m.mu.Unlock()

	case player.PlayerPaused:
		m.mu.Lock()
		m.setStateLocked(StatePaused)
		m.mu.Unlock()

	case player.SeekComplete:
		if err := m.persistPosition(uuid, e.PositionMs); err != nil {
			m.log.Warn("persist position", "episode", uuid, "err", err)
		}
		m.forEachSub(func(s *Subscription) {
			s.sendPosition(PositionChange{EpisodeUUID: uuid, PositionMs: e.PositionMs})
		})

	case player.BufferingStateChanged:
		m.forEachSub(func(s *Subscription) {
			s.sendBuffering(BufferingChange{EpisodeUUID: uuid})
		})

	case player.Completion:
		m.advance(e.EpisodeUUID)

	case player.PlayerError:
		m.log.Error("player error", "episode", uuid, "message", e.Message, "err", e.Err)
		m.forEachSub(func(s *Subscription) {
			s.sendError(ErrorEvent{EpisodeUUID: uuid, Message: e.Message, Err: e.Err})
		})
	}
}

// advance removes the finished episode from the queue and starts the next
// resolvable one, stopping when the queue runs out.
func (m *Manager) advance(finishedUUID string) {
	if err := m.store.DeleteByUUID(finishedUUID); err != nil {
		m.log.Error("remove finished episode", "episode", finishedUUID, "err", err)
	}

	next, err := m.store.ResolvedEpisodes(1)
	if err != nil {
		m.log.Error("load next episode", "err", err)
		next = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(next) == 0 {
		m.stopCurrentLocked()
		m.setStateLocked(StateStopped)
		return
	}
	m.startEpisodeLocked(next[0])
}

func (m *Manager) setStateLocked(next State) {
	if m.state == next {
		return
	}
	previous := m.state
	m.state = next
	m.forEachSub(func(s *Subscription) {
		s.sendState(StateChange{Previous: previous, Current: next})
	})
}

func (m *Manager) persistPosition(uuid string, positionMs int) error {
	if uuid == "" {
		return nil
	}
	return m.store.SetPlayedUpTo(uuid, time.Duration(positionMs)*time.Millisecond)
}

func (m *Manager) forEachSub(fn func(*Subscription)) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	for _, sub := range m.subs {
		fn(sub)
	}
}

// resumePositionMs returns where playback of an episode should pick up.
func resumePositionMs(e episode.Playable) int {
	if pe, ok := e.(episode.PodcastEpisode); ok {
		return int(pe.PlayedUpTo.Milliseconds())
	}
	return 0
}
