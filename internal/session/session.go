// Package session binds a camera source to the analysis pipeline and manages its
// lifecycle: start, stop and switching between the front and back lens.
package session

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/frame"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/pipeline"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// SourceFactory opens the frame source for a lens
type SourceFactory func(lens frame.Lens) (frame.Source, error)

// Status is a point-in-time view of the session
type Status struct {
	ID        string             `json:"id"`
	Lens      frame.Lens         `json:"lens"`
	Running   bool               `json:"running"`
	Source    *frame.SourceStats `json:"source,omitempty"`
	Uploads   frame.SourceStats  `json:"uploads"`
	LastError string             `json:"last_error,omitempty"`
}

// Session owns the active frame source and feeds its frames to the pipeline.
// Frames uploaded through Push share the same pipeline.
type Session struct {
	id       string
	factory  SourceFactory
	pipeline *pipeline.Pipeline
	store    *state.Store
	uploads  *frame.PushSource
	log      *logrus.Entry

	mu      sync.Mutex
	baseCtx context.Context
	lens    frame.Lens
	source  frame.Source
	cancel  context.CancelFunc
	done    chan struct{}

	errMu   sync.Mutex
	lastErr error

	tapMu   sync.Mutex
	waiters []chan still
}

type still struct {
	img      image.Image
	rotation models.Rotation
}

// NewID returns a fresh session identifier
func NewID() string {
	return uuid.NewString()
}

// New creates a stopped session for lens. Run starts it.
func New(id string, factory SourceFactory, p *pipeline.Pipeline, store *state.Store, lens frame.Lens) *Session {
	if id == "" {
		id = NewID()
	}
	s := &Session{
		id:       id,
		factory:  factory,
		pipeline: p,
		store:    store,
		uploads:  frame.NewPushSource(),
		log:      logger.WithSession(id),
		lens:     lens,
	}
	s.uploads.RegisterFrameHandler(func(f *frame.Frame) { s.handleFrame(f) })
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Run starts the source for the current lens and blocks until ctx is done. The
// source is then stopped and the pipeline closed.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.baseCtx != nil {
		s.mu.Unlock()
		return errors.New("session already running")
	}
	s.baseCtx = ctx
	err := s.startLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	<-ctx.Done()

	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.pipeline.Close()
	s.store.Reset()
	s.log.Info("Camera session stopped")
	return nil
}

// SwitchCamera rebinds the session to the other lens. The previous source is
// stopped and the published state reset before the new source starts. If the
// other lens cannot be opened the session falls back to the previous one.
func (s *Session) SwitchCamera(ctx context.Context) (frame.Lens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx == nil || s.baseCtx.Err() != nil {
		return s.lens, apperrors.NewFrameUnavailableError("camera session is not running", nil)
	}
	if err := ctx.Err(); err != nil {
		return s.lens, apperrors.NewTimeoutError("camera switch canceled", err)
	}

	previous := s.lens
	s.stopLocked()
	s.pipeline.Rebind()

	s.lens = previous.Toggle()
	if err := s.startLocked(); err != nil {
		s.log.WithError(err).WithField("lens", s.lens).Warn("Cannot open lens, restoring previous camera")
		s.lens = previous
		if restoreErr := s.startLocked(); restoreErr != nil {
			s.log.WithError(restoreErr).Error("Cannot restore previous camera")
		}
		return s.lens, apperrors.NewFrameUnavailableError("cannot open "+string(previous.Toggle())+" camera", err)
	}

	s.log.WithFields(logrus.Fields{"from": previous, "to": s.lens}).Info("Camera switched")
	return s.lens, nil
}

// Push hands an uploaded image to the pipeline as a frame
func (s *Session) Push(img image.Image, rotation models.Rotation) (uint64, pipeline.Outcome) {
	f := s.uploads.NewFrame(img, rotation)
	return f.Seq, s.handleFrame(f)
}

// Still returns a copy of the next frame that reaches the session
func (s *Session) Still(ctx context.Context) (image.Image, models.Rotation, error) {
	ch := make(chan still, 1)
	s.tapMu.Lock()
	s.waiters = append(s.waiters, ch)
	s.tapMu.Unlock()

	select {
	case st := <-ch:
		return st.img, st.rotation, nil
	case <-ctx.Done():
		s.tapMu.Lock()
		for i, w := range s.waiters {
			if w == ch {
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				break
			}
		}
		s.tapMu.Unlock()
		// the frame may have arrived while unregistering
		select {
		case st := <-ch:
			return st.img, st.rotation, nil
		default:
		}
		return nil, 0, apperrors.NewCaptureError("no camera frame arrived", ctx.Err())
	}
}

// Status reports the session state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:      s.id,
		Lens:    s.lens,
		Running: s.cancel != nil,
		Uploads: s.uploads.Stats(),
	}
	if counted, ok := s.source.(interface{ Stats() frame.SourceStats }); ok {
		stats := counted.Stats()
		st.Source = &stats
	}
	s.errMu.Lock()
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.errMu.Unlock()
	return st
}

// handleFrame serves pending still requests from f, then passes f on
func (s *Session) handleFrame(f *frame.Frame) pipeline.Outcome {
	s.tapMu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.tapMu.Unlock()

	if len(waiters) > 0 && f.Image != nil {
		copied := still{img: imaging.Clone(f.Image), rotation: f.Geometry.Rotation}
		for _, w := range waiters {
			w <- copied
		}
	} else if len(waiters) > 0 {
		s.tapMu.Lock()
		s.waiters = append(s.waiters, waiters...)
		s.tapMu.Unlock()
	}

	return s.pipeline.OnFrameAvailable(f)
}

func (s *Session) startLocked() error {
	source, err := s.factory(s.lens)
	if err != nil {
		s.setLastErr(err)
		return err
	}
	source.RegisterFrameHandler(func(f *frame.Frame) { s.handleFrame(f) })

	ctx, cancel := context.WithCancel(s.baseCtx)
	done := make(chan struct{})
	s.source = source
	s.cancel = cancel
	s.done = done
	s.setLastErr(nil)

	lens := s.lens
	go func() {
		defer close(done)
		if err := source.Run(ctx); err != nil {
			s.log.WithError(err).WithField("lens", lens).Error("Frame source stopped")
			s.setLastErr(err)
		}
	}()

	s.log.WithField("lens", lens).Info("Camera session started")
	return nil
}

// stopLocked cancels the source and waits for its Run to return
func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.source.RegisterFrameHandler(nil)
	s.cancel = nil
}

func (s *Session) setLastErr(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
}
