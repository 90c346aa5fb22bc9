package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/npaolucci/upnext/internal/episode"
)

// Verify BeepEngine implements Engine at compile time.
var _ Engine = (*BeepEngine)(nil)

var speakerOnce sync.Once

// BeepEngine plays downloaded episode files through the system speaker.
// It only handles local files; streaming sources need a different engine.
type BeepEngine struct {
	mu sync.Mutex

	cb       Callbacks
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	queued   bool
	prepared bool
	playing  bool
	stopped  bool
}

// NewBeepEngine is an EngineFactory for local file playback.
func NewBeepEngine() Engine {
	return &BeepEngine{}
}

func (e *BeepEngine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

func (e *BeepEngine) Prepare(location episode.Location, isHLS bool) error {
	local, ok := location.(episode.LocalFile)
	if !ok {
		return fmt.Errorf("streaming playback is not supported by this engine")
	}
	if isHLS {
		return fmt.Errorf("hls playback is not supported by this engine")
	}

	f, err := os.Open(local.FilePath)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext := strings.ToLower(filepath.Ext(local.FilePath)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return err
	}

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		streamer.Close()
		f.Close()
		return initErr
	}

	e.mu.Lock()
	e.file = f
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	e.prepared = true
	cb := e.cb
	e.mu.Unlock()

	if cb.OnDurationAvailable != nil {
		go cb.OnDurationAvailable()
	}
	return nil
}

func (e *BeepEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared || e.stopped {
		return fmt.Errorf("engine not prepared")
	}

	if !e.queued {
		e.queued = true
		speaker.Play(beep.Seq(e.ctrl, beep.Callback(e.finished)))
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.playing = true
	return nil
}

func (e *BeepEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared || e.stopped {
		return fmt.Errorf("engine not prepared")
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.playing = false
	return nil
}

func (e *BeepEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	e.playing = false

	if e.queued {
		speaker.Clear()
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.ctrl = nil
}

func (e *BeepEngine) SeekTo(positionMs int) {
	e.mu.Lock()
	if !e.prepared || e.stopped {
		e.mu.Unlock()
		return
	}
	sample := e.format.SampleRate.N(time.Duration(positionMs) * time.Millisecond)
	speaker.Lock()
	if sample > e.streamer.Len() {
		sample = e.streamer.Len()
	}
	err := e.streamer.Seek(sample)
	landed := e.streamer.Position()
	speaker.Unlock()
	cb := e.cb
	sr := e.format.SampleRate
	e.mu.Unlock()

	if err != nil {
		if cb.OnError != nil {
			go cb.OnError("seek failed", err)
		}
		return
	}
	if cb.OnSeekComplete != nil {
		go cb.OnSeekComplete(int(sr.D(landed).Milliseconds()))
	}
}

func (e *BeepEngine) PlayWhenReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *BeepEngine) PositionMs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared || e.stopped {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return int(e.format.SampleRate.D(pos).Milliseconds())
}

func (e *BeepEngine) DurationMs() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared || e.stopped {
		return 0, false
	}
	return int(e.format.SampleRate.D(e.streamer.Len()).Milliseconds()), true
}

// BufferedUpToMs reports the whole file; local playback never buffers.
func (e *BeepEngine) BufferedUpToMs() int {
	ms, _ := e.DurationMs()
	return ms
}

func (e *BeepEngine) BufferedPercentage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared || e.stopped {
		return 0
	}
	return 100
}

func (e *BeepEngine) IsBuffering() bool { return false }

// finished runs on the speaker goroutine when the streamer drains.
func (e *BeepEngine) finished() {
	e.mu.Lock()
	cb := e.cb
	done := e.prepared && !e.stopped
	e.playing = false
	e.mu.Unlock()

	if done && cb.OnCompletion != nil {
		cb.OnCompletion()
	}
}
