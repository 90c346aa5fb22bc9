// Package player wraps an external playback engine in a small state
// machine. The engine is a black box: it decodes and renders, reports
// position and duration, and delivers callbacks from its own goroutines.
// This package turns those raw callbacks into an ordered stream of domain
// events and papers over known engine defects (seeks landing short).
package player

import (
	"github.com/npaolucci/upnext/internal/episode"
)

// Engine is the contract for the underlying decode/render component.
//
// Engines are single-use: after Stop they must be discarded and a fresh one
// created by the factory for the next prepare. Callbacks are delivered
// asynchronously on engine goroutines, never from within a command call.
type Engine interface {
	SetCallbacks(cb Callbacks)
	Prepare(location episode.Location, isHLS bool) error
	Play() error
	Pause() error
	Stop()
	SeekTo(positionMs int)
	PlayWhenReady() bool
	PositionMs() int
	DurationMs() (int, bool)
	BufferedUpToMs() int
	BufferedPercentage() int
	IsBuffering() bool
}

// Callbacks is the listener surface an engine reports through.
// Nil funcs are allowed and skipped.
type Callbacks struct {
	OnSeekComplete      func(positionMs int)
	OnDurationAvailable func()
	OnCompletion        func()
	OnBufferingChanged  func()
	OnError             func(message string, err error)
}

// EngineFactory creates a fresh engine. Called on every prepare because
// engines are not reusable after Stop.
type EngineFactory func() Engine
