package playback

// State is the externally visible playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// EpisodeChange is emitted when playback moves to a different episode,
// including the automatic advance when an episode completes.
type EpisodeChange struct {
	PreviousUUID string
	UUID         string
	Title        string
}

// PositionChange is emitted when a seek completes.
type PositionChange struct {
	EpisodeUUID string
	PositionMs  int
}

// BufferingChange is emitted when the active stream starts or stops
// buffering. Never emitted for downloaded episodes.
type BufferingChange struct {
	EpisodeUUID string
}

// ErrorEvent is emitted when the player reports an engine failure.
type ErrorEvent struct {
	EpisodeUUID string
	Message     string
	Err         error
}
