package model

import (
	"testing"
)

func TestInitialTourState(t *testing.T) {
	s := InitialTourState()

	if s.Stage != StageIdle {
		t.Errorf("expected idle stage, got %s", s.Stage)
	}
	if s.Image != nil || s.Landmark != nil || s.History != nil {
		t.Error("initial state must have no content")
	}
	if s.Error != "" {
		t.Errorf("initial state must have no error, got %q", s.Error)
	}
	if s.HasAudio {
		t.Error("initial state must not report audio")
	}
}

func TestTourState_Clone(t *testing.T) {
	orig := TourState{
		Image: []byte{1, 2, 3},
		Landmark: &LandmarkInfo{
			Name: "Eiffel Tower",
			PointsOfInterest: []PointOfInterest{
				{Label: "Summit", X: 50, Y: 10},
			},
		},
		History: &DetailedHistory{
			FullStory: "Built for the 1889 Exposition Universelle.",
			Sources:   []Source{{Title: "Wikipedia", URI: "https://en.wikipedia.org/wiki/Eiffel_Tower"}},
		},
		Stage: StageReady,
	}

	clone := orig.Clone()

	// Mutating the clone must not touch the original.
	clone.Image[0] = 9
	clone.Landmark.Name = "changed"
	clone.Landmark.PointsOfInterest[0].Label = "changed"
	clone.History.Sources[0].Title = "changed"

	if orig.Image[0] != 1 {
		t.Error("clone aliases image bytes")
	}
	if orig.Landmark.Name != "Eiffel Tower" {
		t.Error("clone aliases landmark")
	}
	if orig.Landmark.PointsOfInterest[0].Label != "Summit" {
		t.Error("clone aliases points of interest")
	}
	if orig.History.Sources[0].Title != "Wikipedia" {
		t.Error("clone aliases sources")
	}
}

func TestTourState_CloneNilFields(t *testing.T) {
	s := InitialTourState()
	clone := s.Clone()

	if clone.Landmark != nil || clone.History != nil || clone.Image != nil {
		t.Error("clone of empty state must stay empty")
	}
}
