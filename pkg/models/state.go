package models

import "time"

// PublishedState is the snapshot exposed to presentation layers. A snapshot is
// never mutated after it has been published; writers replace it as a whole.
type PublishedState struct {
	Result      *RecognitionResult `json:"recognition_result,omitempty"`
	FrameWidth  int                `json:"frame_width"`
	FrameHeight int                `json:"frame_height"`
	Rotation    Rotation           `json:"rotation_degrees"`
	CaptureURI  string             `json:"capture_uri,omitempty"`
	Version     uint64             `json:"version"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// FrameGeometry returns the geometry of the most recently accepted frame
func (s PublishedState) FrameGeometry() FrameGeometry {
	return FrameGeometry{Width: s.FrameWidth, Height: s.FrameHeight, Rotation: s.Rotation}
}

// StoredLocation identifies a captured photo in its backing store
type StoredLocation struct {
	URI       string    `json:"uri"`
	Name      string    `json:"name"`
	Backend   string    `json:"backend"`
	Size      int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
