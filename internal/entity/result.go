package entity

import "time"

// ImageResult is the persisted document for a single analyzed image.
// Field names are part of the storage contract consumed downstream.
type ImageResult struct {
	Source     string            `json:"source"`
	Type       string            `json:"type"`
	Metadata   map[string]string `json:"metadata"`
	Detections []Detection       `json:"detections"`
	Summary    Summary           `json:"summary"`
	TrackingID string            `json:"trackingID,omitempty"`
}

// FrameResult holds one video frame's detections with its own summary.
type FrameResult struct {
	Detections []Detection `json:"detections"`
	Summary    Summary     `json:"summary"`
}

// VideoResult is the persisted document for an analyzed video. FramesResults
// is ordered by frame index starting at zero, one entry per decoded frame.
type VideoResult struct {
	Timestamp     time.Time     `json:"timestamp"`
	Source        string        `json:"source"`
	Type          string        `json:"type"`
	FramesResults []FrameResult `json:"frames_results"`
	TrackingID    string        `json:"trackingID,omitempty"`
}
