package store

// Insert positions accepted by InsertAt.
const (
	PositionTop  = 0  // becomes the playing episode
	PositionNext = 1  // right after the playing episode
	PositionLast = -1 // end of the queue
)

// Entry is a row of the Up Next queue. Position is zero-based and dense;
// position 0 is the currently playing episode.
type Entry struct {
	ID          int64
	EpisodeUUID string
	Position    int
}

// PositionUpdate renumbers one existing row.
type PositionUpdate struct {
	ID       int64
	Position int
}

// Reposition computes the renumbering caused by inserting a new entry into
// the queue. It is a pure function over the current ordered entries so the
// algorithm can be tested without a database.
//
// It returns the position the new entry should take, the position updates to
// apply to existing rows, and whether the queue should be cleared first
// (replaceSingleton on a single-entry queue).
//
// Inserting at PositionNext never displaces the playing episode: the entry
// at position 0 keeps position 0 and everything behind it shifts by one.
// Existing entries are always renumbered densely, so a gap left by a
// prior removal of the same episode is closed in the same operation.
func Reposition(entries []Entry, insertPosition int, replaceSingleton bool) (newPosition int, updates []PositionUpdate, clearAll bool) {
	addLast := insertPosition == PositionLast

	switch {
	case len(entries) == 0:
		return PositionTop, nil, false

	case replaceSingleton && len(entries) == 1:
		return PositionTop, nil, true

	case addLast:
		newPosition = len(entries)
		for i, e := range entries {
			updates = append(updates, PositionUpdate{ID: e.ID, Position: i})
		}
		return newPosition, updates, false

	default:
		for i, e := range entries {
			pos := i + 1
			if insertPosition == PositionNext && i == 0 {
				// play next keeps the playing episode at position 0
				pos = 0
			}
			updates = append(updates, PositionUpdate{ID: e.ID, Position: pos})
		}
		return insertPosition, updates, false
	}
}
