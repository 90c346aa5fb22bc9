package player

// Event is the closed set of domain events a player emits. Consumers
// pattern-match on the concrete type; the set never grows at runtime.
type Event interface {
	isEvent()
}

// PlayerPlaying is emitted when playback starts or resumes.
type PlayerPlaying struct{}

// PlayerPaused is emitted by every Pause call, whatever the prior state.
// Consumers treat it as an idempotent signal.
type PlayerPaused struct{}

// SeekComplete is emitted once a seek has been accepted as final.
type SeekComplete struct {
	PositionMs int
}

// DurationAvailable is emitted when the engine first knows the duration.
type DurationAvailable struct{}

// Completion is emitted when the current episode plays to the end.
type Completion struct {
	EpisodeUUID string
}

// BufferingStateChanged is emitted when the engine starts or stops
// buffering. Suppressed for local files, which never buffer.
type BufferingStateChanged struct{}

// MetadataAvailable carries tags embedded in a downloaded episode file.
type MetadataAvailable struct {
	Metadata FileMetadata
}

// PlayerError wraps an engine-level failure. The player itself never
// retries these; the orchestrator decides what happens next.
type PlayerError struct {
	Message string
	Err     error
}

func (PlayerPlaying) isEvent()         {}
func (PlayerPaused) isEvent()          {}
func (SeekComplete) isEvent()          {}
func (DurationAvailable) isEvent()     {}
func (Completion) isEvent()            {}
func (BufferingStateChanged) isEvent() {}
func (MetadataAvailable) isEvent()     {}
func (PlayerError) isEvent()           {}
