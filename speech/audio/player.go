// Package audio implements the playback resource behind the synchronizer: an
// oto-backed PCM player plus a mock used by tests.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/speechsync/speech"
)

// Audio format constants for synthesized speech.
const (
	// SampleRate is the default sample rate in Hz for raw PCM sources.
	SampleRate = 22050
	// Channels is the default channel count for raw PCM sources.
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per sample.
	BytesPerSample = BitDepth / 8
)

// Format is the OTO sample format for our audio.
const Format = oto.FormatSignedInt16LE

// monitorInterval is how often the end-of-media monitor polls the oto player.
const monitorInterval = 50 * time.Millisecond

// positionReader wraps the PCM data and tracks the byte offset oto has
// consumed. The offset is the playback clock the synchronizer samples, so it
// must stay readable without blocking on the reader mutex oto holds.
type positionReader struct {
	mu       sync.Mutex
	reader   *bytes.Reader
	position int64 // atomic
}

func newPositionReader(data []byte) *positionReader {
	return &positionReader{reader: bytes.NewReader(data)}
}

func (pr *positionReader) Read(p []byte) (int, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	n, err := pr.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(&pr.position, int64(n))
	}
	return n, err
}

func (pr *positionReader) Seek(offset int64, whence int) (int64, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pos, err := pr.reader.Seek(offset, whence)
	if err == nil {
		atomic.StoreInt64(&pr.position, pos)
	}
	return pos, err
}

func (pr *positionReader) Position() int64 {
	return atomic.LoadInt64(&pr.position)
}

// Context is the process-wide OTO audio context. OTO allows only one per
// process, so it is shared by every Player.
type Context struct {
	context *oto.Context
	mu      sync.Mutex
	ready   bool
}

var (
	globalContext *Context
	contextOnce   sync.Once
)

// GetContext returns the shared audio context, initializing it on first use.
func GetContext() (*Context, error) {
	var initErr error
	contextOnce.Do(func() {
		globalContext = &Context{}
		initErr = globalContext.initialize()
	})
	if initErr != nil {
		return nil, initErr
	}
	return globalContext, nil
}

func (c *Context) initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil
	}

	context, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: Channels,
		Format:       Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create audio context: %w", err)
	}
	<-readyChan

	c.context = context
	c.ready = true
	return nil
}

// Player plays PCM speech audio through OTO and exposes the narrow playback
// interface the synchronizer drives. One Player owns at most one loaded
// source at a time.
type Player struct {
	mu sync.Mutex

	data      []byte
	reader    *positionReader
	player    *oto.Player
	duration  time.Duration
	playing   bool
	paused    bool
	closed    bool
	callbacks speech.PlayerCallbacks

	monitorStop chan struct{}
}

var _ speech.Player = (*Player)(nil)

// NewPlayer creates an idle player. The shared audio context is acquired
// lazily on the first Load.
func NewPlayer() *Player {
	return &Player{}
}

// Load reads the PCM (or 16-bit PCM WAV) file identified by src and prepares
// it for playback. Any previously loaded source is detached first.
func (p *Player) Load(src string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return speech.NewPlaybackError(speech.CategoryAborted, true, speech.ErrPlayerClosed)
	}

	p.detachLocked()

	raw, err := os.ReadFile(src)
	if err != nil {
		return speech.NewPlaybackError(speech.CategoryNetwork, true,
			fmt.Errorf("failed to read audio source: %w", err))
	}

	pcm, err := extractPCM(raw)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return speech.NewPlaybackError(speech.CategoryDecode, true, errors.New("empty audio data"))
	}
	if len(pcm)%(BytesPerSample*Channels) != 0 {
		return speech.NewPlaybackError(speech.CategoryDecode, true,
			fmt.Errorf("PCM data length %d not aligned to %d-byte frames", len(pcm), BytesPerSample*Channels))
	}

	if _, err := GetContext(); err != nil {
		return speech.NewPlaybackError(speech.CategoryUnknown, true, err)
	}

	p.data = pcm
	p.reader = newPositionReader(pcm)
	samples := len(pcm) / (BytesPerSample * Channels)
	p.duration = time.Duration(samples) * time.Second / SampleRate
	return nil
}

// Play starts playback of the loaded source from its current position.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return speech.NewPlaybackError(speech.CategoryAborted, true, speech.ErrPlayerClosed)
	}
	if p.reader == nil {
		return speech.NewPlaybackError(speech.CategoryAborted, true, speech.ErrNotLoaded)
	}
	if p.playing && !p.paused {
		return speech.ErrAlreadyPlaying
	}

	ctx, err := GetContext()
	if err != nil {
		return speech.NewPlaybackError(speech.CategoryUnknown, true, err)
	}

	p.player = ctx.context.NewPlayer(p.reader)
	p.player.Play()
	p.playing = true
	p.paused = false

	p.monitorStop = make(chan struct{})
	go p.monitor(p.monitorStop)
	return nil
}

// Pause suspends playback, keeping the position for Resume.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing || p.paused {
		return speech.ErrNotPlaying
	}
	p.player.Pause()
	p.paused = true
	return nil
}

// Resume continues playback from the paused position.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused {
		return speech.ErrNotPaused
	}
	p.player.Play()
	p.paused = false
	return nil
}

// Stop halts playback, rewinds, and detaches the loaded source. Idempotent.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detachLocked()
	return nil
}

// Seek repositions playback, aligned down to a whole sample frame.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reader == nil {
		return speech.ErrNotLoaded
	}

	frame := int64(BytesPerSample * Channels)
	offset := int64(pos) * SampleRate / int64(time.Second) * frame
	if max := int64(len(p.data)); offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}

	if p.player != nil {
		_, err := p.player.Seek(offset, io.SeekStart)
		return err
	}
	_, err := p.reader.Seek(offset, io.SeekStart)
	return err
}

// GetPosition returns the playback position derived from the consumed byte
// offset. Accurate to the device buffer, which is within the one-frame
// tolerance the synchronizer needs.
func (p *Player) GetPosition() time.Duration {
	p.mu.Lock()
	reader := p.reader
	p.mu.Unlock()

	if reader == nil {
		return 0
	}
	samples := reader.Position() / int64(BytesPerSample*Channels)
	return time.Duration(samples) * time.Second / SampleRate
}

// GetDuration returns the duration of the loaded source, zero when none is
// loaded.
func (p *Player) GetDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// IsPlaying returns true while audio is audibly playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused
}

// SetCallbacks registers the completion and failure observers.
func (p *Player) SetCallbacks(callbacks speech.PlayerCallbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = callbacks
}

// Close stops playback and releases the player. The shared audio context
// stays alive for other players.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detachLocked()
	p.closed = true
	return nil
}

// detachLocked tears down the oto player and drops the loaded source so its
// memory can be reclaimed.
func (p *Player) detachLocked() {
	if p.monitorStop != nil {
		close(p.monitorStop)
		p.monitorStop = nil
	}
	if p.player != nil {
		p.player.Pause()
		p.player.Close()
		p.player = nil
	}
	p.data = nil
	p.reader = nil
	p.duration = 0
	p.playing = false
	p.paused = false
}

// monitor watches for the natural end of the media and for device errors,
// invoking the registered callbacks outside the player lock.
func (p *Player) monitor(stop chan struct{}) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if !p.playing || p.paused || p.player == nil {
				p.mu.Unlock()
				return
			}

			if err := p.player.Err(); err != nil {
				callbacks := p.callbacks
				p.detachLocked()
				p.mu.Unlock()
				if callbacks.OnError != nil {
					callbacks.OnError(speech.NewPlaybackError(speech.CategoryUnknown, false, err))
				}
				return
			}

			if !p.player.IsPlaying() && p.reader.Position() >= int64(len(p.data)) {
				callbacks := p.callbacks
				p.detachLocked()
				p.mu.Unlock()
				if callbacks.OnComplete != nil {
					callbacks.OnComplete()
				}
				return
			}
			p.mu.Unlock()
		}
	}
}

// extractPCM returns the PCM payload of raw, unwrapping a 16-bit PCM WAV
// container when present. Non-PCM WAV encodings are rejected as unsupported.
func extractPCM(raw []byte) ([]byte, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		// Raw PCM at the default format.
		return raw, nil
	}

	// Walk the RIFF chunks for fmt and data.
	var havePCM bool
	for off := 12; off+8 <= len(raw); {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if body+size > len(raw) {
			break
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, speech.NewPlaybackError(speech.CategoryDecode, true,
					errors.New("truncated WAV format chunk"))
			}
			audioFormat := binary.LittleEndian.Uint16(raw[body : body+2])
			bits := binary.LittleEndian.Uint16(raw[body+14 : body+16])
			if audioFormat != 1 || bits != BitDepth {
				return nil, speech.NewPlaybackError(speech.CategoryUnsupported, true,
					fmt.Errorf("unsupported WAV encoding (format %d, %d-bit)", audioFormat, bits))
			}
			havePCM = true
		case "data":
			if !havePCM {
				return nil, speech.NewPlaybackError(speech.CategoryDecode, true,
					errors.New("WAV data chunk precedes format chunk"))
			}
			return raw[body : body+size], nil
		}

		// Chunks are word-aligned.
		off = body + size + size%2
	}

	return nil, speech.NewPlaybackError(speech.CategoryDecode, true, errors.New("no WAV data chunk found"))
}
