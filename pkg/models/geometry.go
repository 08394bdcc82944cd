package models

import "fmt"

// Rect is an axis-aligned box. Depending on where it came from it is expressed in
// frame pixels or in viewport units.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the rect
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rect
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Rotation is the clockwise rotation, in degrees, that makes a sensor frame upright
// for the viewer.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Valid reports whether r is one of the four supported quarter turns
func (r Rotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// SwapsAxes reports whether the viewer sees the frame's width and height exchanged
func (r Rotation) SwapsAxes() bool {
	return r == Rotation90 || r == Rotation270
}

// ParseRotation converts a degree value into a Rotation
func ParseRotation(degrees int) (Rotation, error) {
	r := Rotation(degrees)
	if !r.Valid() {
		return 0, fmt.Errorf("unsupported rotation %d: must be one of 0, 90, 180, 270", degrees)
	}
	return r, nil
}

// FrameGeometry describes the size and orientation of an analyzed frame
type FrameGeometry struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rotation Rotation `json:"rotation_degrees"`
}

// EffectiveExtent returns the frame size as perceived by the viewer after the
// rotation-induced axis swap.
func (g FrameGeometry) EffectiveExtent() (width, height float64) {
	if g.Rotation.SwapsAxes() {
		return float64(g.Height), float64(g.Width)
	}
	return float64(g.Width), float64(g.Height)
}

// IsZero reports whether no frame size has been recorded yet
func (g FrameGeometry) IsZero() bool {
	return g.Width == 0 || g.Height == 0
}

// DisplayMetrics is the viewport the renderer draws the overlay into
type DisplayMetrics struct {
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
}
