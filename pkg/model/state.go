package model

// Stage marks the pipeline's progress through a tour.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageIdentifying Stage = "identifying"
	StageResearching Stage = "researching"
	StageNarrating   Stage = "narrating"
	StageReady       Stage = "ready"
)

// TourState is the single user-visible session aggregate. Fields populate
// strictly left-to-right as Stage advances. Error != "" implies Stage ==
// idle with all content fields cleared.
//
// The audio buffer lives outside this struct (it is owned by the session
// store but not serialized); HasAudio mirrors its presence for consumers.
type TourState struct {
	Image    []byte           `json:"-"`
	Landmark *LandmarkInfo    `json:"landmark,omitempty"`
	History  *DetailedHistory `json:"history,omitempty"`
	Stage    Stage            `json:"stage"`
	Error    string           `json:"error,omitempty"`
	HasAudio bool             `json:"has_audio"`
}

// InitialTourState returns the aggregate as it exists at session start
// and after every reset.
func InitialTourState() TourState {
	return TourState{Stage: StageIdle}
}

// Clone returns a deep copy so readers can never alias the store's
// internal aggregate.
func (s TourState) Clone() TourState {
	out := s
	if s.Image != nil {
		out.Image = append([]byte(nil), s.Image...)
	}
	if s.Landmark != nil {
		lm := *s.Landmark
		lm.PointsOfInterest = append([]PointOfInterest(nil), s.Landmark.PointsOfInterest...)
		out.Landmark = &lm
	}
	if s.History != nil {
		h := *s.History
		h.Sources = append([]Source(nil), s.History.Sources...)
		out.History = &h
	}
	return out
}
