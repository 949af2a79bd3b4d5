// Package session owns the single user-visible tour state aggregate.
package session

import (
	"sync"

	"ciceronego/pkg/codec"
	"ciceronego/pkg/model"
)

// TransitionFunc is invoked after every stage change with a snapshot of
// the new state. Callbacks run synchronously on the mutating goroutine.
type TransitionFunc func(model.TourState)

// Manager is the tour state store. Writes come only from the orchestrator
// and the reset protocol; everyone else reads snapshots.
type Manager struct {
	mu        sync.RWMutex
	state     model.TourState
	audio     *codec.Buffer
	listeners []TransitionFunc
}

// NewManager creates a store holding the initial aggregate.
func NewManager() *Manager {
	return &Manager{state: model.InitialTourState()}
}

// Subscribe registers a transition callback. Not safe to call while a run
// is in flight; wire subscribers during startup.
func (m *Manager) Subscribe(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Snapshot returns a deep copy of the current aggregate.
func (m *Manager) Snapshot() model.TourState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Stage returns the current pipeline stage.
func (m *Manager) Stage() model.Stage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Stage
}

// AudioBuffer returns the decoded narration buffer, nil before the first
// successful run.
func (m *Manager) AudioBuffer() *codec.Buffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.audio
}

func (m *Manager) notifyLocked() (model.TourState, []TransitionFunc) {
	return m.state.Clone(), append([]TransitionFunc(nil), m.listeners...)
}

// StartIdentifying begins a run: stores the captured image, clears any
// previous error, and advances to the identifying stage.
func (m *Manager) StartIdentifying(image []byte) {
	m.mu.Lock()
	m.state = model.InitialTourState()
	m.state.Image = image
	m.state.Stage = model.StageIdentifying
	m.audio = nil
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// StoreLandmark records the identification result and advances to research.
func (m *Manager) StoreLandmark(lm *model.LandmarkInfo) {
	m.mu.Lock()
	m.state.Landmark = lm
	m.state.Stage = model.StageResearching
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// StoreHistory records the research result and advances to narration.
func (m *Manager) StoreHistory(h *model.DetailedHistory) {
	m.mu.Lock()
	m.state.History = h
	m.state.Stage = model.StageNarrating
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// StoreAudio records the decoded narration and completes the run.
func (m *Manager) StoreAudio(buf *codec.Buffer) {
	m.mu.Lock()
	m.audio = buf
	m.state.HasAudio = buf != nil
	m.state.Stage = model.StageReady
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// SetThumbnail attaches an enrichment thumbnail to the identified landmark.
// No-op when no landmark is stored; never advances the stage.
func (m *Manager) SetThumbnail(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Landmark != nil {
		m.state.Landmark.ThumbnailURL = url
	}
}

// Fail aborts the run: all content fields are cleared, the stage returns
// to idle, and the error message becomes visible. No partial results
// survive a failure.
func (m *Manager) Fail(msg string) {
	m.mu.Lock()
	m.state = model.InitialTourState()
	m.state.Error = msg
	m.audio = nil
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Reset restores the exact initial aggregate. Idempotent; consumers never
// observe an intermediate state.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.state = model.InitialTourState()
	m.audio = nil
	snap, listeners := m.notifyLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
