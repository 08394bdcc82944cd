// Package state holds the latest published snapshot of the analysis pipeline.
//
// Readers load an immutable snapshot without locking. Writers build a complete
// replacement under a mutex and swap it in atomically, so a reader never sees a
// new rotation paired with fragments from another frame.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Store is the process-wide holder for one active session
type Store struct {
	current atomic.Pointer[models.PublishedState]

	writeMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[uint64]chan models.PublishedState
	nextSubID   uint64
}

// NewStore creates a store holding an empty snapshot
func NewStore() *Store {
	s := &Store{subscribers: make(map[uint64]chan models.PublishedState)}
	s.current.Store(&models.PublishedState{UpdatedAt: time.Now()})
	return s
}

// Load returns the latest snapshot. The returned value and the result it points to
// must be treated as read-only.
func (s *Store) Load() models.PublishedState {
	return *s.current.Load()
}

// SetFrameGeometry records the size and rotation of the most recently accepted frame
func (s *Store) SetFrameGeometry(g models.FrameGeometry) models.PublishedState {
	return s.update(func(next *models.PublishedState) {
		next.FrameWidth = g.Width
		next.FrameHeight = g.Height
		next.Rotation = g.Rotation
	})
}

// PublishResult replaces the recognition result. The result is copied, so the
// caller may not observe or mutate what readers see.
func (s *Store) PublishResult(r *models.RecognitionResult) models.PublishedState {
	published := cloneResult(r)
	return s.update(func(next *models.PublishedState) {
		next.Result = published
	})
}

// SetCaptureURI records the location of the last captured photo
func (s *Store) SetCaptureURI(uri string) models.PublishedState {
	return s.update(func(next *models.PublishedState) {
		next.CaptureURI = uri
	})
}

// Reset clears frame and recognition data, keeping the last capture location
func (s *Store) Reset() models.PublishedState {
	return s.update(func(next *models.PublishedState) {
		captureURI := next.CaptureURI
		version := next.Version
		*next = models.PublishedState{CaptureURI: captureURI, Version: version}
	})
}

// Subscribe returns a channel receiving every snapshot published after the call.
// A subscriber that falls behind only gets the newest snapshot. The returned
// function cancels the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan models.PublishedState, func()) {
	ch := make(chan models.PublishedState, 1)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) update(mutate func(next *models.PublishedState)) models.PublishedState {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.current.Load()
	mutate(&next)
	next.Version++
	next.UpdatedAt = time.Now()
	s.current.Store(&next)

	s.notify(next)
	return next
}

// notify runs under writeMu so subscribers see snapshots in version order
func (s *Store) notify(snapshot models.PublishedState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Replace the stale pending snapshot with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

func cloneResult(r *models.RecognitionResult) *models.RecognitionResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Fragments = make([]models.TextFragment, len(r.Fragments))
	for i, f := range r.Fragments {
		out.Fragments[i] = f
		if f.BoundingBox != nil {
			box := *f.BoundingBox
			out.Fragments[i].BoundingBox = &box
		}
	}
	return &out
}
