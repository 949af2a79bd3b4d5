package model

import (
	"time"
)

// PointOfInterest is a notable detail within the photographed frame.
// X and Y are percentages in [0,100] relative to the source image;
// order is display order only.
type PointOfInterest struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// LandmarkInfo is the result of the identification stage. It is produced
// once per tour and immutable afterwards.
type LandmarkInfo struct {
	Name             string            `json:"name"`
	ShortDescription string            `json:"shortDescription"`
	PointsOfInterest []PointOfInterest `json:"pointsOfInterest"`

	// ThumbnailURL is filled in asynchronously by the enrichment step.
	// Best-effort; may stay empty.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Source is a grounding citation attached to a researched story.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// DetailedHistory is the result of the research stage. Sources may be
// empty when grounding was unavailable.
type DetailedHistory struct {
	FullStory string   `json:"fullStory"`
	Sources   []Source `json:"sources"`
}

// TourRecord is a completed tour as persisted in the journal.
type TourRecord struct {
	ID          string    `json:"id"`
	Landmark    string    `json:"landmark"`
	Description string    `json:"description"`
	Story       string    `json:"story"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
}
