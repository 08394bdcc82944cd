package container

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anime-shed/live-text-overlay-go/internal/config"
	"github.com/anime-shed/live-text-overlay-go/internal/factory"
	"github.com/anime-shed/live-text-overlay-go/internal/frame"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/observer"
	"github.com/anime-shed/live-text-overlay-go/internal/overlay"
	"github.com/anime-shed/live-text-overlay-go/internal/pipeline"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/internal/repository"
	"github.com/anime-shed/live-text-overlay-go/internal/service"
	"github.com/anime-shed/live-text-overlay-go/internal/session"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/internal/storage"
	"github.com/anime-shed/live-text-overlay-go/internal/transport"
	"github.com/anime-shed/live-text-overlay-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	store              *state.Store
	events             *observer.EventPublisher
	metrics            *observer.MetricsObserver
	recognizer         recognition.Service
	pipeline           *pipeline.Pipeline
	session            *session.Session
	photos             storage.PhotoStore
	captureService     service.CaptureService
	recognitionService service.RecognitionService
	handler            http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components, err := factory.NewComponentFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create factories: %w", err)
	}
	style, err := overlay.ParseStyle(cfg.OverlayColor, 2)
	if err != nil {
		return nil, err
	}

	// Build dependency graph
	recognizer, err := components.RecognizerFactory.CreateRecognizer(factory.EngineType(cfg.OCREngine))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	photos, err := components.StorageFactory.CreateStorage(ctx, factory.StorageType(cfg.StorageBackend))
	if err != nil {
		closeRecognizer(recognizer)
		return nil, fmt.Errorf("failed to create capture store: %w", err)
	}
	openSource, err := components.SourceFactory.CreateSourceFactory(factory.SourceType(cfg.FrameSource))
	if err != nil {
		closeRecognizer(recognizer)
		return nil, fmt.Errorf("failed to create frame source: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	sessionID := session.NewID()
	store := state.NewStore()
	p := pipeline.New(recognizer, store, pipeline.Options{
		AnalysisTimeout: cfg.AnalysisTimeout,
		MinSharpness:    cfg.MinSharpness,
		Events:          events,
		SessionID:       sessionID,
	})
	sess := session.New(sessionID, openSource, p, store, frame.Lens(cfg.CameraLens))

	validator := validation.NewRequestValidator()
	if len(cfg.AllowedImageHosts) > 0 {
		validator = validation.NewRequestValidatorWithOptions([]string{"http", "https"}, cfg.AllowedImageHosts)
	}
	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
	images := repository.NewImageRepository(fetcher, photos, validator)
	captureService := service.NewCaptureService(sess, photos, store, events, sessionID)
	recognitionService := service.NewRecognitionService(images, recognizer, validator)

	handler := transport.NewHandler(transport.Services{
		State:       store,
		Session:     sess,
		Pipeline:    p,
		Capture:     captureService,
		Recognition: recognitionService,
		Metrics:     metrics,
		Style:       style,
	}, cfg)

	return &Container{
		config:             cfg,
		store:              store,
		events:             events,
		metrics:            metrics,
		recognizer:         recognizer,
		pipeline:           p,
		session:            sess,
		photos:             photos,
		captureService:     captureService,
		recognitionService: recognitionService,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Session returns the camera session
func (c *Container) Session() *session.Session {
	return c.session
}

// State returns the published state store
func (c *Container) State() *state.Store {
	return c.store
}

// Close stops the pipeline and releases the recognition engine. Call it after
// the session has stopped.
func (c *Container) Close() error {
	c.pipeline.Close()
	return closeRecognizer(c.recognizer)
}

func closeRecognizer(r recognition.Service) error {
	if closer, ok := r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
