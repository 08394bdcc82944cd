// Package frame defines camera frames and the sources that produce them.
//
// A Frame is owned by exactly one party at a time. Whoever receives a frame from a
// Source must call Release once it is done with it; Release is idempotent so that
// the resource behind the frame is returned to the source exactly once.
package frame

import (
	"image"
	"sync/atomic"
	"time"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Frame is one camera image plus its orientation metadata
type Frame struct {
	Image      image.Image
	Geometry   models.FrameGeometry
	Seq        uint64
	CapturedAt time.Time

	release  func()
	released atomic.Bool
}

// Handler receives frames from a Source. The handler takes over the obligation
// to release every frame it is given.
type Handler func(f *Frame)

// New wraps img as a frame. The release hook, if any, runs on the first Release call.
func New(img image.Image, rotation models.Rotation, seq uint64, release func()) *Frame {
	f := &Frame{
		Image:      img,
		Seq:        seq,
		CapturedAt: time.Now(),
		release:    release,
	}
	f.Geometry.Rotation = rotation
	if img != nil {
		b := img.Bounds()
		f.Geometry.Width = b.Dx()
		f.Geometry.Height = b.Dy()
	}
	return f
}

// Release returns the frame's resource to its source. Only the first call has an
// effect; it reports whether this call performed the release.
func (f *Frame) Release() bool {
	if !f.released.CompareAndSwap(false, true) {
		return false
	}
	if f.release != nil {
		f.release()
	}
	return true
}

// Released reports whether Release has been called
func (f *Frame) Released() bool {
	return f.released.Load()
}

// Usable checks that the frame carries an image that can be analyzed
func (f *Frame) Usable() error {
	if f.Image == nil {
		return apperrors.NewFrameUnavailableError("frame carries no image", nil)
	}
	if f.Geometry.IsZero() {
		return apperrors.NewFrameUnavailableError("frame has zero size", nil)
	}
	if !f.Geometry.Rotation.Valid() {
		return apperrors.NewFrameUnavailableError("frame has unsupported rotation", nil)
	}
	return nil
}
