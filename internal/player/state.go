package player

// State represents the local player state machine.
//
// The machine has six states with the following valid transitions:
//
//	┌──────┐ prepare ┌───────────┐ prepared ┌───────┐
//	│ Idle │ ───────▶│ Preparing │ ────────▶│ Ready │
//	└──────┘         └───────────┘          └───────┘
//	                                          │   ▲
//	                                     play │   │
//	                                          ▼   │
//	                  ┌─────────┐  pause   ┌─────────┐
//	                  │ Playing │ ◀──────▶ │ Paused  │
//	                  └─────────┘  resume  └─────────┘
//	                        │                  │
//	                        └───────┬──────────┘
//	                           stop ▼
//	                          ┌─────────┐
//	                          │ Stopped │
//	                          └─────────┘
//
// A seek in flight is tracked through the seek target, not as a state:
// Ready, Playing and Paused all accept seeks.
//
// Invalid/No-op transitions (handled gracefully):
//   - prepare while Playing/Paused/Ready (already prepared, ignored)
//   - pause while not Playing (position untouched, paused signal still emitted)
//   - stop while Idle (ignored)
type State int

const (
	Idle State = iota
	Preparing
	Ready
	Playing
	Paused
	Stopped
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Preparing:
		return "Preparing"
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// IsPrepared returns true once the engine has loaded a source and accepts
// play/seek commands.
func (s State) IsPrepared() bool {
	return s == Ready || s == Playing || s == Paused
}
