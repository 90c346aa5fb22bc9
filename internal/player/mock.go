package player

import (
	"sync"

	"github.com/npaolucci/upnext/internal/episode"
)

// MockEngine is a scriptable test double for Engine.
type MockEngine struct {
	mu sync.Mutex

	cb Callbacks

	prepared      bool
	playWhenReady bool
	buffering     bool
	positionMs    int
	durationMs    int
	hasDuration   bool
	bufferedMs    int
	bufferedPct   int

	prepareErr error
	playErr    error

	// landAt maps a requested seek target to the position the engine
	// pretends to land at. Targets not in the map land exactly.
	landAt map[int]int

	prepareCalls []episode.Location
	seekCalls    []int
	stopCalls    int
}

// NewMockEngine creates a mock engine for testing.
func NewMockEngine() *MockEngine {
	return &MockEngine{landAt: map[int]int{}}
}

func (m *MockEngine) SetCallbacks(cb Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

func (m *MockEngine) Prepare(location episode.Location, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareCalls = append(m.prepareCalls, location)
	if m.prepareErr != nil {
		return m.prepareErr
	}
	m.prepared = true
	return nil
}

func (m *MockEngine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.playWhenReady = true
	return nil
}

func (m *MockEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playWhenReady = false
	return nil
}

func (m *MockEngine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.prepared = false
	m.playWhenReady = false
}

func (m *MockEngine) SeekTo(positionMs int) {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, positionMs)
	landed, scripted := m.landAt[positionMs]
	if !scripted {
		landed = positionMs
	}
	m.positionMs = landed
	cb := m.cb.OnSeekComplete
	m.mu.Unlock()

	// callbacks are delivered off the command path, like a real engine
	if cb != nil {
		go cb(landed)
	}
}

func (m *MockEngine) PlayWhenReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playWhenReady
}

func (m *MockEngine) PositionMs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionMs
}

func (m *MockEngine) DurationMs() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationMs, m.hasDuration
}

func (m *MockEngine) BufferedUpToMs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bufferedMs
}

func (m *MockEngine) BufferedPercentage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bufferedPct
}

func (m *MockEngine) IsBuffering() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffering
}

// Test helpers

func (m *MockEngine) SetPosition(ms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionMs = ms
}

func (m *MockEngine) SetDuration(ms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durationMs = ms
	m.hasDuration = true
}

func (m *MockEngine) SetPrepareError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareErr = err
}

func (m *MockEngine) SetBuffering(b bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffering = b
}

func (m *MockEngine) SetBuffered(ms, percentage int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bufferedMs = ms
	m.bufferedPct = percentage
}

// LandSeekAt scripts the position the engine reports after a seek to
// target, simulating a seek that lands somewhere else.
func (m *MockEngine) LandSeekAt(target, landed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landAt[target] = landed
}

func (m *MockEngine) SeekCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.seekCalls...)
}

func (m *MockEngine) PrepareCalls() []episode.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]episode.Location(nil), m.prepareCalls...)
}

func (m *MockEngine) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// FireCompletion simulates the episode ending.
func (m *MockEngine) FireCompletion() {
	m.mu.Lock()
	cb := m.cb.OnCompletion
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// FireBufferingChanged simulates a buffering transition.
func (m *MockEngine) FireBufferingChanged() {
	m.mu.Lock()
	cb := m.cb.OnBufferingChanged
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// FireDurationAvailable simulates the duration becoming known.
func (m *MockEngine) FireDurationAvailable() {
	m.mu.Lock()
	cb := m.cb.OnDurationAvailable
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// FireError simulates an engine failure.
func (m *MockEngine) FireError(message string, err error) {
	m.mu.Lock()
	cb := m.cb.OnError
	m.mu.Unlock()
	if cb != nil {
		cb(message, err)
	}
}

// Verify MockEngine implements Engine at compile time.
var _ Engine = (*MockEngine)(nil)
