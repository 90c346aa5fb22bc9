package player

import (
	"log/slog"
	"sync"
	"time"

	"github.com/npaolucci/upnext/internal/episode"
)

const (
	// Maximum drift between the stored resume position and what the engine
	// reports before Play issues a corrective seek. Engines may silently
	// reset position on re-prepare; the tolerance avoids spurious seeks
	// from normal rounding.
	seekToleranceMs = 2000

	// A completed seek landing this far before the requested target is
	// treated as an engine defect and retried once.
	seekShortfallMs = 5000

	seekRetryWait = 100 * time.Millisecond

	eventBufferSize = 32
)

// LocalPlayer drives a single-use playback engine for one episode at a
// time. All commands are serialized behind one mutex; engine callbacks
// arrive on engine goroutines and are translated into events on a single
// ordered channel.
//
// The position and seek-target fields are private to the instance and must
// not be mutated from outside.
type LocalPlayer struct {
	mu sync.Mutex

	newEngine EngineFactory
	engine    Engine // nil unless prepared; discarded on Stop
	log       *slog.Logger

	events chan Event

	episodeUUID string
	isHLS       bool
	location    episode.Location

	state State

	// playback position for starting or resuming from focus loss
	positionMs int

	seekingToMs      int
	seekRetryAllowed bool
}

// New creates a player that builds engines with the given factory.
func New(factory EngineFactory, log *slog.Logger) *LocalPlayer {
	if log == nil {
		log = slog.Default()
	}
	return &LocalPlayer{
		newEngine: factory,
		log:       log,
		events:    make(chan Event, eventBufferSize),
		state:     Idle,
	}
}

// Events returns the ordered event stream for this player instance.
func (p *LocalPlayer) Events() <-chan Event {
	return p.events
}

// SetEpisode resets the player session for a new playable. It does not
// start loading; any previous engine is released.
func (p *LocalPlayer) SetEpisode(e episode.Playable) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine != nil {
		p.engine.Stop()
		p.engine = nil
	}
	p.episodeUUID = e.UUID()
	p.isHLS = e.IsHLS()
	p.location = episode.LocationOf(e)
	p.state = Idle
	p.positionMs = 0
	p.seekingToMs = 0
	p.seekRetryAllowed = false
}

// EpisodeUUID returns the identity of the loaded episode, empty if none.
func (p *LocalPlayer) EpisodeUUID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.episodeUUID
}

// State returns the current state machine state.
func (p *LocalPlayer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsStreaming reports whether the active source is a network stream.
func (p *LocalPlayer) IsStreaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return episode.IsStreaming(p.location)
}

// Load prepares the engine and seeks to the resume position. Negative
// positions are accepted but ignored by the seek.
func (p *LocalPlayer) Load(startPositionMs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positionMs = startPositionMs
	if !p.prepareLocked() {
		return
	}
	p.seekToLocked(startPositionMs)
}

// Play prepares if necessary and starts playback, correcting the engine
// position first when it has drifted from the stored target.
func (p *LocalPlayer) Play(startPositionMs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positionMs = startPositionMs
	if !p.prepareLocked() {
		return
	}

	// already playing?
	if p.engine.PlayWhenReady() {
		p.state = Playing
		p.send(PlayerPlaying{})
		return
	}

	// check the engine is seeked to the correct position, allowing a
	// small variance
	enginePositionMs := p.engine.PositionMs()
	if abs(p.positionMs-enginePositionMs) > seekToleranceMs {
		p.onSeekStartLocked(p.positionMs)
		p.engine.SeekTo(p.positionMs)
	}
	if err := p.engine.Play(); err != nil {
		p.send(PlayerError{Message: "play failed", Err: err})
		return
	}
	p.state = Playing
	p.send(PlayerPlaying{})
}

// Pause stops playback if playing, snapshotting the engine position as the
// new resume position. The paused signal is emitted unconditionally.
func (p *LocalPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Playing && p.engine != nil {
		if err := p.engine.Pause(); err != nil {
			p.send(PlayerError{Message: "pause failed", Err: err})
		} else {
			p.positionMs = p.engine.PositionMs()
			p.state = Paused
		}
	}
	p.send(PlayerPaused{})
}

// Stop snapshots the position and releases the engine. The engine is fully
// re-created on the next prepare.
func (p *LocalPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return
	}
	p.positionMs = p.engine.PositionMs()
	p.engine.Stop()
	p.engine = nil
	p.state = Stopped
}

// SeekToTimeMs seeks to the given position. Negative values are ignored.
// Before the engine is prepared the target is stored and applied once
// ready.
func (p *LocalPlayer) SeekToTimeMs(positionMs int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seekToLocked(positionMs)
}

// CurrentPositionMs returns the engine's live position, falling back to the
// stored resume position when no engine is active.
func (p *LocalPlayer) CurrentPositionMs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return p.positionMs
	}
	return p.engine.PositionMs()
}

// DurationMs returns the engine-reported duration, false when unknown.
func (p *LocalPlayer) DurationMs() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return 0, false
	}
	return p.engine.DurationMs()
}

// BufferedUpToMs returns how far ahead the engine has buffered.
func (p *LocalPlayer) BufferedUpToMs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return 0
	}
	return p.engine.BufferedUpToMs()
}

// BufferedPercentage returns how much of the source the engine has
// buffered, as a percentage.
func (p *LocalPlayer) BufferedPercentage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return 0
	}
	return p.engine.BufferedPercentage()
}

// IsBuffering reports engine buffering. Downloaded episodes never buffer.
func (p *LocalPlayer) IsBuffering() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !episode.IsStreaming(p.location) || p.engine == nil {
		return false
	}
	return p.engine.IsBuffering()
}

func (p *LocalPlayer) seekToLocked(positionMs int) {
	if positionMs < 0 {
		return
	}

	p.log.Debug("seek", "episode", p.episodeUUID, "position_ms", positionMs)

	p.positionMs = positionMs
	if p.state.IsPrepared() {
		p.onSeekStartLocked(positionMs)
		p.engine.SeekTo(positionMs)
	}
}

// prepareLocked makes sure an engine is loaded. Preparing while already
// prepared is a no-op, not an error. Returns false when prepare failed (an
// error event has been emitted).
func (p *LocalPlayer) prepareLocked() bool {
	if p.state.IsPrepared() {
		return true
	}

	p.state = Preparing
	engine := p.newEngine()
	engine.SetCallbacks(Callbacks{
		OnSeekComplete:      p.onSeekComplete,
		OnDurationAvailable: p.onDurationAvailable,
		OnCompletion:        p.onCompletion,
		OnBufferingChanged:  p.onBufferingStateChanged,
		OnError:             p.onEngineError,
	})
	if err := engine.Prepare(p.location, p.isHLS); err != nil {
		engine.Stop()
		p.state = Idle
		p.send(PlayerError{Message: "prepare failed", Err: err})
		return false
	}
	p.engine = engine
	p.state = Ready

	// read tags from downloaded files while the engine spins up
	if local, ok := p.location.(episode.LocalFile); ok {
		go p.emitFileMetadata(local.FilePath)
	}
	return true
}

func (p *LocalPlayer) onSeekStartLocked(positionMs int) {
	p.seekingToMs = positionMs
	p.seekRetryAllowed = true
}

// onSeekComplete verifies where a seek landed. Some engines report a stale
// position after a restart; a landing more than seekShortfallMs before the
// target is reissued exactly once, then the second answer is final.
func (p *LocalPlayer) onSeekComplete(positionMs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if positionMs < p.seekingToMs-seekShortfallMs && p.seekRetryAllowed {
		p.log.Info("seek landed short, retrying",
			"wanted_ms", p.seekingToMs, "got_ms", positionMs)
		time.Sleep(seekRetryWait)
		p.seekRetryAllowed = false
		if p.engine != nil {
			p.engine.SeekTo(p.seekingToMs)
		}
		return
	}
	p.positionMs = positionMs
	p.send(SeekComplete{PositionMs: positionMs})
}

func (p *LocalPlayer) onDurationAvailable() {
	p.send(DurationAvailable{})
}

func (p *LocalPlayer) onCompletion() {
	p.mu.Lock()
	uuid := p.episodeUUID
	p.mu.Unlock()
	p.send(Completion{EpisodeUUID: uuid})
}

func (p *LocalPlayer) onBufferingStateChanged() {
	p.mu.Lock()
	streaming := episode.IsStreaming(p.location)
	p.mu.Unlock()

	// local files never report buffering
	if streaming {
		p.send(BufferingStateChanged{})
	}
}

func (p *LocalPlayer) onEngineError(message string, err error) {
	p.log.Error("engine error", "episode", p.episodeUUID, "message", message, "err", err)
	p.send(PlayerError{Message: message, Err: err})
}

func (p *LocalPlayer) emitFileMetadata(path string) {
	meta, err := ReadFileMetadata(path)
	if err != nil {
		p.log.Debug("no embedded metadata", "path", path, "err", err)
		return
	}
	p.send(MetadataAvailable{Metadata: meta})
}

// send queues an event without blocking. A full buffer drops the event,
// matching the contract that consumers keep up or lose intermediate
// signals.
func (p *LocalPlayer) send(e Event) {
	select {
	case p.events <- e:
	default:
		p.log.Warn("event buffer full, dropping", "event", e)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
