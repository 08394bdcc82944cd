package frame

import (
	"context"
	"image"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// PushSource delivers frames handed to it by callers, e.g. images uploaded over HTTP
type PushSource struct {
	dispatcher
}

// NewPushSource creates an empty push source
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Push wraps img as a frame and passes it to the registered handler on the
// calling goroutine. It returns the frame sequence number.
func (s *PushSource) Push(img image.Image, rotation models.Rotation) uint64 {
	f := s.newFrame(img, rotation, nil)
	s.deliver(f)
	return f.Seq
}

// Run blocks until ctx is done; frames are produced by Push
func (s *PushSource) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// NewFrame wraps img as a counted frame without delivering it. The caller owns
// the frame and must release it.
func (s *PushSource) NewFrame(img image.Image, rotation models.Rotation) *Frame {
	s.emitted.Add(1)
	return s.newFrame(img, rotation, nil)
}
