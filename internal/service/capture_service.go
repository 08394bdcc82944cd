package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/observer"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/internal/storage"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// captureJPEGQuality is the encoder quality of saved photos
const captureJPEGQuality = 92

// StillProvider hands out a copy of the next camera frame. The returned image
// is owned by the caller.
type StillProvider interface {
	Still(ctx context.Context) (image.Image, models.Rotation, error)
}

// CaptureService takes still photos beside the live analysis
type CaptureService interface {
	CapturePhoto(ctx context.Context) (models.StoredLocation, error)
}

type captureService struct {
	stills    StillProvider
	photos    storage.PhotoStore
	state     *state.Store
	events    observer.Subject
	sessionID string
	now       func() time.Time

	mu         sync.Mutex
	lastMillis int64
}

// NewCaptureService creates a capture service saving into photos and publishing
// the saved location to st
func NewCaptureService(stills StillProvider, photos storage.PhotoStore, st *state.Store, events observer.Subject, sessionID string) CaptureService {
	if events == nil {
		events = observer.Discard{}
	}
	return &captureService{
		stills:    stills,
		photos:    photos,
		state:     st,
		events:    events,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// CapturePhoto encodes the next frame upright as JPEG, saves it as
// IMG_<unix-millis>.jpg and publishes its URI as the snapshot's capture URI
func (s *captureService) CapturePhoto(ctx context.Context) (models.StoredLocation, error) {
	start := time.Now()

	loc, err := s.capture(ctx)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.PipelineEvent{
			EventType:      observer.CaptureFailed,
			SessionID:      s.sessionID,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return models.StoredLocation{}, err
	}

	s.state.SetCaptureURI(loc.URI)
	s.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:      observer.CaptureSaved,
		SessionID:      s.sessionID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"uri":     loc.URI,
			"backend": loc.Backend,
			"size":    loc.Size,
		},
	})
	logger.WithSession(s.sessionID).WithFields(logrus.Fields{
		"uri":  loc.URI,
		"size": loc.Size,
	}).Info("Photo captured")

	return loc, nil
}

func (s *captureService) capture(ctx context.Context) (models.StoredLocation, error) {
	img, rotation, err := s.stills.Still(ctx)
	if err != nil {
		return models.StoredLocation{}, asCaptureError("no frame available for capture", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, recognition.Upright(img, rotation), imaging.JPEG, imaging.JPEGQuality(captureJPEGQuality)); err != nil {
		return models.StoredLocation{}, apperrors.NewCaptureError("cannot encode photo", err)
	}

	loc, err := s.photos.Save(ctx, s.photoName(), buf.Bytes(), storage.ContentTypeJPEG)
	if err != nil {
		return models.StoredLocation{}, asCaptureError("cannot save photo", err)
	}
	return loc, nil
}

// photoName returns a capture name that is unique even for captures taken
// within the same millisecond
func (s *captureService) photoName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	millis := s.now().UnixMilli()
	if millis <= s.lastMillis {
		millis = s.lastMillis + 1
	}
	s.lastMillis = millis
	return fmt.Sprintf("IMG_%d.jpg", millis)
}

func asCaptureError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(message, err)
	}
	return apperrors.NewCaptureError(message, err)
}
