package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ciceronego/pkg/playback"
)

// AudioHandler handles audio control endpoints.
type AudioHandler struct {
	playback *playback.Manager
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(pb *playback.Manager) *AudioHandler {
	return &AudioHandler{playback: pb}
}

// AudioControlRequest represents an audio control command.
type AudioControlRequest struct {
	Action string `json:"action"` // "pause", "resume", "stop", "replay"
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying bool    `json:"is_playing"`
	IsPaused  bool    `json:"is_paused"`
	Volume    float64 `json:"volume"`
}

// HandleControl handles POST /api/audio/control
func (h *AudioHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req AudioControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var state string
	switch req.Action {
	case "pause":
		h.playback.Pause()
		state = "paused"
	case "resume":
		h.playback.Resume()
		state = "playing"
	case "stop":
		h.playback.StopAll()
		state = "stopped"
	case "replay":
		if !h.playback.Replay(nil) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if err := json.NewEncoder(w).Encode(map[string]string{
				"status":  "error",
				"message": "No previous narration to replay",
			}); err != nil {
				slog.Error("Failed to encode response", "error", err)
			}
			return
		}
		state = "replaying"
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	slog.Debug("Audio control", "action", req.Action, "state", state)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"state":  state,
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.playback.SetVolume(req.Volume)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]float64{
		"volume": h.playback.Volume(),
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := AudioStatusResponse{
		IsPlaying: h.playback.IsPlaying(),
		IsPaused:  h.playback.IsPaused(),
		Volume:    h.playback.Volume(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
