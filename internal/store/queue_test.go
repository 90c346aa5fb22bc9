package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, nil)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return s
}

func queueUUIDs(t *testing.T, s *Store) []string {
	t.Helper()
	entries, err := s.All()
	require.NoError(t, err)
	uuids := make([]string, 0, len(entries))
	for i, e := range entries {
		assert.Equal(t, i, e.Position, "positions must be dense")
		uuids = append(uuids, e.EpisodeUUID)
	}
	return uuids
}

func TestInsertAtOrdering(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAll([]string{"A", "B", "C"}))
	assert.Equal(t, []string{"A", "B", "C"}, queueUUIDs(t, s))

	// play next goes right behind the playing episode
	require.NoError(t, s.InsertAt("D", PositionNext, false))
	assert.Equal(t, []string{"A", "D", "B", "C"}, queueUUIDs(t, s))

	// play now displaces everything
	require.NoError(t, s.InsertAt("E", PositionTop, false))
	assert.Equal(t, []string{"E", "A", "D", "B", "C"}, queueUUIDs(t, s))
}

func TestInsertAtRejectsArbitraryPositions(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.InsertAt("A", 5, false))
	assert.Error(t, s.InsertAt("A", -2, false))
}

func TestInsertAtDeduplicates(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAll([]string{"A", "B", "C"}))

	// re-adding C moves it instead of duplicating it
	require.NoError(t, s.InsertAt("C", PositionNext, false))
	assert.Equal(t, []string{"A", "C", "B"}, queueUUIDs(t, s))

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInsertAtReplaceSingleton(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAt("A", PositionTop, false))
	require.NoError(t, s.InsertAt("B", PositionTop, true))
	assert.Equal(t, []string{"B"}, queueUUIDs(t, s))
}

func TestSaveAllPreservesRowIdentity(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAll([]string{"A", "B", "C"}))
	before, err := s.All()
	require.NoError(t, err)
	idByUUID := make(map[string]int64)
	for _, e := range before {
		idByUUID[e.EpisodeUUID] = e.ID
	}

	// reorder, drop C, introduce D
	require.NoError(t, s.SaveAll([]string{"B", "D", "A"}))
	assert.Equal(t, []string{"B", "D", "A"}, queueUUIDs(t, s))

	after, err := s.All()
	require.NoError(t, err)
	for _, e := range after {
		if id, ok := idByUUID[e.EpisodeUUID]; ok {
			assert.Equal(t, id, e.ID, "surviving row %s must keep its identity", e.EpisodeUUID)
		}
	}

	contains, err := s.Contains("C")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestSaveAllOnEmptyQueue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveAll([]string{"A", "B"}))
	assert.Equal(t, []string{"A", "B"}, queueUUIDs(t, s))
}

func TestDeleteByUUIDClosesGap(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAll([]string{"A", "B", "C"}))
	require.NoError(t, s.DeleteByUUID("B"))
	assert.Equal(t, []string{"A", "C"}, queueUUIDs(t, s))
}

func TestDeleteAllExceptHead(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertAll([]string{"A", "B", "C"}))
	require.NoError(t, s.DeleteAllExceptHead())
	assert.Equal(t, []string{"A"}, queueUUIDs(t, s))

	// empty queue is a no-op
	require.NoError(t, s.DeleteAll())
	require.NoError(t, s.DeleteAllExceptHead())
	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFindHead(t *testing.T) {
	s := newTestStore(t)

	head, err := s.FindHead()
	require.NoError(t, err)
	assert.Nil(t, head)

	require.NoError(t, s.InsertAll([]string{"A", "B"}))
	head, err = s.FindHead()
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "A", head.EpisodeUUID)
	assert.Equal(t, 0, head.Position)
}
