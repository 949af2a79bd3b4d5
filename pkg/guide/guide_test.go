package guide

import (
	"fmt"
	"testing"

	"ciceronego/pkg/model"
)

func validLandmark() *model.LandmarkInfo {
	return &model.LandmarkInfo{
		Name:             "Eiffel Tower",
		ShortDescription: "Iron lattice tower on the Champ de Mars in Paris.",
		PointsOfInterest: []model.PointOfInterest{
			{Label: "Summit", Description: "Observation deck at 276 m.", X: 50, Y: 10},
			{Label: "Arch", Description: "The four lattice legs meet in a wide arch.", X: 50, Y: 90},
		},
	}
}

func TestValidateLandmark(t *testing.T) {
	if err := ValidateLandmark(validLandmark()); err != nil {
		t.Fatalf("valid landmark rejected: %v", err)
	}
}

func TestValidateLandmarkRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.LandmarkInfo)
	}{
		{"nil object", nil},
		{"empty name", func(l *model.LandmarkInfo) { l.Name = "  " }},
		{"empty description", func(l *model.LandmarkInfo) { l.ShortDescription = "" }},
		{"poi without label", func(l *model.LandmarkInfo) { l.PointsOfInterest[0].Label = "" }},
		{"poi without description", func(l *model.LandmarkInfo) { l.PointsOfInterest[1].Description = "" }},
		{"x below range", func(l *model.LandmarkInfo) { l.PointsOfInterest[0].X = -1 }},
		{"y above range", func(l *model.LandmarkInfo) { l.PointsOfInterest[0].Y = 101 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var lm *model.LandmarkInfo
			if tc.mutate != nil {
				lm = validLandmark()
				tc.mutate(lm)
			}
			err := ValidateLandmark(lm)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsMalformedResponse(err) {
				t.Errorf("error is not a MalformedResponseError: %v", err)
			}
		})
	}
}

func TestValidateLandmarkNoPOIs(t *testing.T) {
	lm := validLandmark()
	lm.PointsOfInterest = nil
	if err := ValidateLandmark(lm); err != nil {
		t.Errorf("landmark without POIs should be valid: %v", err)
	}
}

func TestValidateHistory(t *testing.T) {
	if err := ValidateHistory(&model.DetailedHistory{FullStory: "Built in 1889."}); err != nil {
		t.Errorf("valid history rejected: %v", err)
	}
	if err := ValidateHistory(&model.DetailedHistory{}); err == nil {
		t.Error("empty story should be rejected")
	}
	if err := ValidateHistory(nil); err == nil {
		t.Error("nil history should be rejected")
	}
}

func TestIsMalformedResponseWrapped(t *testing.T) {
	inner := &MalformedResponseError{Reason: "bad json"}
	wrapped := fmt.Errorf("identify: %w", inner)
	if !IsMalformedResponse(wrapped) {
		t.Error("wrapped malformed error not detected")
	}
	if IsMalformedResponse(fmt.Errorf("plain error")) {
		t.Error("plain error misdetected as malformed")
	}
}
