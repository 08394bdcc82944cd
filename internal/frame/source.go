package frame

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Source produces a live sequence of frames. Run blocks until ctx is done or the
// source fails; every produced frame is passed to the registered handler, or
// released by the source itself when no handler is registered.
type Source interface {
	RegisterFrameHandler(h Handler)
	Run(ctx context.Context) error
}

// Lens selects which camera a session binds to
type Lens string

const (
	LensBack  Lens = "back"
	LensFront Lens = "front"
)

// Toggle returns the opposite lens
func (l Lens) Toggle() Lens {
	if l == LensFront {
		return LensBack
	}
	return LensFront
}

// SourceStats counts frames handed out and returned by a source
type SourceStats struct {
	Emitted  uint64 `json:"emitted"`
	Released uint64 `json:"released"`
}

// dispatcher holds the handler registration and accounting shared by sources
type dispatcher struct {
	mu       sync.RWMutex
	handler  Handler
	seq      atomic.Uint64
	emitted  atomic.Uint64
	released atomic.Uint64
}

func (d *dispatcher) RegisterFrameHandler(h Handler) {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
}

// newFrame wraps the release hook so the source can count returned frames
func (d *dispatcher) newFrame(img image.Image, rotation models.Rotation, release func()) *Frame {
	seq := d.seq.Add(1)
	return New(img, rotation, seq, func() {
		d.released.Add(1)
		if release != nil {
			release()
		}
	})
}

func (d *dispatcher) deliver(f *Frame) {
	d.emitted.Add(1)
	d.mu.RLock()
	h := d.handler
	d.mu.RUnlock()
	if h == nil {
		f.Release()
		return
	}
	h(f)
}

func (d *dispatcher) Stats() SourceStats {
	return SourceStats{
		Emitted:  d.emitted.Load(),
		Released: d.released.Load(),
	}
}
