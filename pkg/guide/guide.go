// Package guide defines the capability layer of the tour pipeline:
// identification, research, and speech synthesis.
package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ciceronego/pkg/model"
)

// Capabilities is the model-facing surface the orchestrator runs a tour on.
// Implementations talk to an actual model; tests substitute fakes.
type Capabilities interface {
	// IdentifyLandmark names the landmark in a photograph and its visible
	// points of interest.
	IdentifyLandmark(ctx context.Context, image []byte, mimeType string) (*model.LandmarkInfo, error)

	// ResearchLandmark writes the landmark's story using grounded web search.
	ResearchLandmark(ctx context.Context, landmark *model.LandmarkInfo) (*model.DetailedHistory, error)

	// SynthesizeNarration renders the story about the named landmark as
	// speech and returns the audio as base64-encoded 16-bit little-endian
	// PCM.
	SynthesizeNarration(ctx context.Context, name, story string) (string, error)
}

// ErrNoAudio is returned when synthesis succeeds but the response carries no
// audio payload.
var ErrNoAudio = errors.New("no audio data in response")

// MalformedResponseError indicates the model's reply did not match the
// expected structure.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsMalformedResponse reports whether err is (or wraps) a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// ValidateLandmark checks the structural contract of an identification result.
func ValidateLandmark(info *model.LandmarkInfo) error {
	if info == nil {
		return &MalformedResponseError{Reason: "missing landmark object"}
	}
	if strings.TrimSpace(info.Name) == "" {
		return &MalformedResponseError{Reason: "landmark name is empty"}
	}
	if strings.TrimSpace(info.ShortDescription) == "" {
		return &MalformedResponseError{Reason: "landmark description is empty"}
	}
	for i, poi := range info.PointsOfInterest {
		if strings.TrimSpace(poi.Label) == "" {
			return &MalformedResponseError{Reason: fmt.Sprintf("point of interest %d has no label", i)}
		}
		if strings.TrimSpace(poi.Description) == "" {
			return &MalformedResponseError{Reason: fmt.Sprintf("point of interest %q has no description", poi.Label)}
		}
		if poi.X < 0 || poi.X > 100 || poi.Y < 0 || poi.Y > 100 {
			return &MalformedResponseError{Reason: fmt.Sprintf("point of interest %q coordinates out of range", poi.Label)}
		}
	}
	return nil
}

// ValidateHistory checks the structural contract of a research result.
func ValidateHistory(hist *model.DetailedHistory) error {
	if hist == nil {
		return &MalformedResponseError{Reason: "missing history object"}
	}
	if strings.TrimSpace(hist.FullStory) == "" {
		return &MalformedResponseError{Reason: "story is empty"}
	}
	return nil
}
