package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"ciceronego/pkg/model"
	"ciceronego/pkg/tour"
)

// maxUploadBytes caps the request body; the orchestrator applies its own
// configured limit on top.
const maxUploadBytes = 32 << 20

// TourLister reads the journal of completed tours. Satisfied by *store.Store.
type TourLister interface {
	ListTours(ctx context.Context, limit int) ([]model.TourRecord, error)
}

// TourHandler handles the tour pipeline endpoints.
type TourHandler struct {
	orch   *tour.Orchestrator
	lister TourLister
}

// NewTourHandler creates a new TourHandler. lister may be nil when no
// journal is configured.
func NewTourHandler(o *tour.Orchestrator, lister TourLister) *TourHandler {
	return &TourHandler{orch: o, lister: lister}
}

// HandleRun handles POST /api/tour/run.
// The body is the photograph: either a raw image upload or a multipart form
// with an "image" field. The run proceeds in the background; clients follow
// progress via GET /api/tour/state.
func (h *TourHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(image) == 0 {
		http.Error(w, "empty image upload", http.StatusBadRequest)
		return
	}

	// The run outlives this request; do not bind it to the request context.
	if err := h.orch.StartTour(context.Background(), image); err != nil {
		if errors.Is(err, tour.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	h.writeState(w)
}

func readImage(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	return io.ReadAll(r.Body)
}

// HandleState handles GET /api/tour/state.
func (h *TourHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeState(w)
}

func (h *TourHandler) writeState(w http.ResponseWriter) {
	if err := json.NewEncoder(w).Encode(h.orch.Session().Snapshot()); err != nil {
		slog.Error("Failed to encode tour state", "error", err)
	}
}

// HandleReset handles POST /api/tour/reset.
func (h *TourHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.orch.Reset()

	w.Header().Set("Content-Type", "application/json")
	h.writeState(w)
}

// HandleReplay handles POST /api/tour/replay.
func (h *TourHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.orch.Replay(); err != nil {
		w.WriteHeader(http.StatusOK)
		if encErr := json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "No previous narration to replay",
		}); encErr != nil {
			slog.Error("Failed to encode response", "error", encErr)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"state":  "replaying",
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// HandleList handles GET /api/tours.
func (h *TourHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.lister == nil {
		if _, err := w.Write([]byte("[]")); err != nil {
			slog.Error("Failed to write tours response", "error", err)
		}
		return
	}

	tours, err := h.lister.ListTours(r.Context(), 50)
	if err != nil {
		http.Error(w, "failed to list tours", http.StatusInternalServerError)
		slog.Error("Failed to list tours", "error", err)
		return
	}
	if tours == nil {
		tours = []model.TourRecord{}
	}

	if err := json.NewEncoder(w).Encode(tours); err != nil {
		slog.Error("Failed to encode tours", "error", err)
	}
}
