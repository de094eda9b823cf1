package model

import "time"

// GeometryFeature is one geometry record for a submission (site boundary,
// building footprint, proposed extension outline). Geometry is stored as
// EWKB bytes; the geometry package handles encoding and metric derivation.
type GeometryFeature struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Name         string    `json:"name"`
	WKB          []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SpatialMetric is one derived numeric measurement for a submission, such
// as site_area_m2 or rear_setback_m. Spatial rules match metrics by
// substring on the name.
type SpatialMetric struct {
	SubmissionID string  `json:"submission_id"`
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit,omitempty"`
}
