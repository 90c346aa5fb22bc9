package playback

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/npaolucci/upnext/internal/episode"
	"github.com/npaolucci/upnext/internal/player"
	"github.com/npaolucci/upnext/internal/store"
)

func newTestQueue(t *testing.T) *store.Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := store.New(db, nil)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return s
}

func queuedEpisode(t *testing.T, s *store.Store, uuid string) episode.PodcastEpisode {
	t.Helper()
	e := episode.PodcastEpisode{
		Uuid:         uuid,
		PodcastUuid:  "podcast-1",
		EpisodeTitle: "Episode " + uuid,
		FilePath:     "/nonexistent/" + uuid + ".mp3",
		Status:       episode.Downloaded,
	}
	require.NoError(t, s.UpsertPodcastEpisode(e))
	return e
}

// engineTap hands out mock engines and records them in creation order.
type engineTap struct {
	created chan *player.MockEngine
}

func newEngineTap() *engineTap {
	return &engineTap{created: make(chan *player.MockEngine, 8)}
}

func (f *engineTap) factory() player.Engine {
	e := player.NewMockEngine()
	f.created <- e
	return e
}

func (f *engineTap) next(t *testing.T) *player.MockEngine {
	t.Helper()
	select {
	case e := <-f.created:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no engine was created")
		return nil
	}
}

func recvEpisode(t *testing.T, sub *Subscription) EpisodeChange {
	t.Helper()
	select {
	case ev := <-sub.EpisodeChanged:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for episode change")
		return EpisodeChange{}
	}
}

func recvStateUntil(t *testing.T, sub *Subscription, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub.StateChanged:
			if ev.Current == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestPlayNowStartsEpisode(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	sub := mgr.Subscribe()
	e := queuedEpisode(t, s, "A")
	require.NoError(t, mgr.PlayNow(e))

	ev := recvEpisode(t, sub)
	assert.Equal(t, "A", ev.UUID)
	assert.Equal(t, "", ev.PreviousUUID)

	recvStateUntil(t, sub, StatePlaying)
	assert.Equal(t, "A", mgr.CurrentEpisodeUUID())

	engine := tap.next(t)
	assert.True(t, engine.PlayWhenReady())

	head, err := s.FindHead()
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "A", head.EpisodeUUID)
}

func TestCompletionAdvancesQueue(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	b := queuedEpisode(t, s, "B")

	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	require.NoError(t, mgr.PlayLast(b))
	recvEpisode(t, sub)
	first := tap.next(t)

	first.FireCompletion()

	ev := recvEpisode(t, sub)
	assert.Equal(t, "A", ev.PreviousUUID)
	assert.Equal(t, "B", ev.UUID)

	second := tap.next(t)
	assert.True(t, second.PlayWhenReady())

	// the finished episode left the queue
	contains, err := s.Contains("A")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestCompletionOfLastEpisodeStops(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	recvStateUntil(t, sub, StatePlaying)

	tap.next(t).FireCompletion()

	recvStateUntil(t, sub, StateStopped)
	assert.Equal(t, "", mgr.CurrentEpisodeUUID())

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSkipToNextAdvances(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	b := queuedEpisode(t, s, "B")

	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	require.NoError(t, mgr.PlayLast(b))
	recvEpisode(t, sub)
	tap.next(t)

	require.NoError(t, mgr.SkipToNext())

	ev := recvEpisode(t, sub)
	assert.Equal(t, "B", ev.UUID)
}

func TestSkipToNextWithNothingPlaying(t *testing.T) {
	s := newTestQueue(t)
	mgr := NewManager(s, newEngineTap().factory, 100, nil)
	defer mgr.Close()

	assert.ErrorIs(t, mgr.SkipToNext(), ErrNothingPlaying)
	assert.ErrorIs(t, mgr.Pause(), ErrNothingPlaying)
	assert.ErrorIs(t, mgr.Resume(), ErrNothingPlaying)
	assert.ErrorIs(t, mgr.SeekToMs(1000), ErrNothingPlaying)
}

func TestPauseAndResume(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	recvStateUntil(t, sub, StatePlaying)
	engine := tap.next(t)

	engine.SetPosition(60000)
	require.NoError(t, mgr.Pause())
	recvStateUntil(t, sub, StatePaused)

	// the position was persisted so a later resume survives a restart
	resolved, err := s.ResolvedEpisodes(1)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	pe, ok := resolved[0].(episode.PodcastEpisode)
	require.True(t, ok)
	assert.Equal(t, 60*time.Second, pe.PlayedUpTo)

	require.NoError(t, mgr.Resume())
	recvStateUntil(t, sub, StatePlaying)
	assert.True(t, engine.PlayWhenReady())
}

func TestSeekPersistsPosition(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	recvStateUntil(t, sub, StatePlaying)
	tap.next(t)

	require.NoError(t, mgr.SeekToMs(90000))

	select {
	case ev := <-sub.PositionChanged:
		assert.Equal(t, "A", ev.EpisodeUUID)
		assert.Equal(t, 90000, ev.PositionMs)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for position change")
	}
}

func TestStopKeepsQueue(t *testing.T) {
	s := newTestQueue(t)
	tap := newEngineTap()
	mgr := NewManager(s, tap.factory, 100, nil)
	defer mgr.Close()

	a := queuedEpisode(t, s, "A")
	b := queuedEpisode(t, s, "B")

	sub := mgr.Subscribe()
	require.NoError(t, mgr.PlayNow(a))
	require.NoError(t, mgr.PlayLast(b))
	recvStateUntil(t, sub, StatePlaying)
	tap.next(t)

	require.NoError(t, mgr.Stop())
	recvStateUntil(t, sub, StateStopped)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count, "stopping does not consume the queue")
}

func TestCloseSignalsSubscribers(t *testing.T) {
	s := newTestQueue(t)
	mgr := NewManager(s, newEngineTap().factory, 100, nil)

	sub := mgr.Subscribe()
	require.NoError(t, mgr.Close())

	select {
	case <-sub.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed")
	}

	// close is idempotent
	require.NoError(t, mgr.Close())
}
