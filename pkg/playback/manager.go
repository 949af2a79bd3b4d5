// Package playback plays decoded narration buffers through the sound device.
package playback

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"ciceronego/pkg/codec"
)

const targetSampleRate = 48000

// Manager owns the single playback handle. Starting a new buffer always
// interrupts the previous one; at most one handle is active at any time.
type Manager struct {
	mu                 sync.RWMutex
	device             Device
	ctrl               *beep.Ctrl
	volume             float64
	isPaused           bool
	deviceInitialized  bool
	currentSampleRate  beep.SampleRate
	streamer           *effects.Volume
	track              *codec.Buffer
	lastBuffer         *codec.Buffer
}

// New creates a Manager on the given device. A nil device selects the
// real speaker.
func New(device Device) *Manager {
	if device == nil {
		device = NewSpeakerDevice()
	}
	return &Manager{
		device: device,
		volume: 1.0,
	}
}

// Play starts playback of a decoded buffer. Any active handle is stopped
// first, so exactly one handle is active after this call. onComplete fires
// when playback runs to the end, not when it is interrupted.
func (m *Manager) Play(buf *codec.Buffer, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	if err := m.ensureDeviceInitialized(); err != nil {
		return err
	}

	// Replays reuse the same buffer, so rewind before streaming.
	if err := buf.Seek(0); err != nil {
		return err
	}

	resampled := beep.Resample(3, buf.SampleRate(), m.currentSampleRate, buf)

	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.streamer = volStreamer
	m.track = buf
	m.lastBuffer = buf

	m.ctrl = &beep.Ctrl{Streamer: volStreamer}
	m.isPaused = false

	m.device.Play(beep.Seq(m.ctrl, beep.Callback(func() {
		go func() {
			m.mu.Lock()
			m.ctrl = nil
			m.isPaused = false
			m.mu.Unlock()

			if onComplete != nil {
				onComplete()
			}
		}()
	})))

	slog.Debug("Playback: started", "duration", buf.Duration())
	return nil
}

// Pause pauses current playback.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil {
		m.device.Lock()
		m.ctrl.Paused = true
		m.device.Unlock()
		m.isPaused = true
	}
}

// Resume resumes paused playback.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil && m.isPaused {
		m.device.Lock()
		m.ctrl.Paused = false
		m.device.Unlock()
		m.isPaused = false
	}
}

// StopAll stops current playback. Stopping when nothing is playing is a no-op.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.ctrl != nil {
		m.device.Clear()
		m.ctrl = nil
		m.isPaused = false
	}
	m.track = nil
	m.streamer = nil
}

func (m *Manager) ensureDeviceInitialized() error {
	if !m.deviceInitialized {
		sr := beep.SampleRate(targetSampleRate)
		if err := m.device.Init(sr, sr.N(time.Second/10)); err != nil {
			slog.Error("Failed to initialize audio device", "error", err)
			return err
		}
		m.deviceInitialized = true
		m.currentSampleRate = sr
	}
	return nil
}

// Replay restarts the most recently played buffer from the beginning.
// Returns false when no narration has been played yet.
func (m *Manager) Replay(onComplete func()) bool {
	m.mu.RLock()
	last := m.lastBuffer
	m.mu.RUnlock()

	if last == nil {
		return false
	}

	return m.Play(last, onComplete) == nil
}

// HasLast reports whether a replayable buffer is stored.
func (m *Manager) HasLast() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBuffer != nil
}

// Forget drops the stored replay buffer.
func (m *Manager) Forget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBuffer = nil
}

// IsPlaying returns true if audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil && !m.isPaused
}

// IsBusy returns true if a handle is active (playing or paused).
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// IsPaused returns true if playback is paused.
func (m *Manager) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	// Update live streamer if playing
	if m.streamer != nil {
		m.device.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		m.device.Unlock()
	}
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Position returns the current playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.track == nil {
		return 0
	}
	return m.track.SampleRate().D(m.track.Position())
}

// Duration returns the total duration of the current audio.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.track == nil {
		return 0
	}
	return m.track.SampleRate().D(m.track.Len())
}

// volumeToPower maps linear volume in [0,1] to beep's base-2 exponent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10 // Silent
	}
	return math.Log2(vol)
}
