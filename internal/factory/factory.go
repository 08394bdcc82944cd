package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anime-shed/live-text-overlay-go/internal/config"
	"github.com/anime-shed/live-text-overlay-go/internal/frame"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/internal/session"
	"github.com/anime-shed/live-text-overlay-go/internal/storage"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// EngineType represents the text recognition engines
type EngineType string

const (
	// TesseractEngine runs Tesseract through gosseract
	TesseractEngine EngineType = "tesseract"
	// StaticEngine answers every frame with an empty result
	StaticEngine EngineType = "static"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// SourceType represents the frame sources a session can bind to
type SourceType string

const (
	// ReplaySource loops over the images of a directory
	ReplaySource SourceType = "replay"
	// CameraSource reads a capture device through OpenCV
	CameraSource SourceType = "camera"
	// NoSource leaves the session idle; frames arrive by upload only
	NoSource SourceType = "none"
)

// RecognizerFactory creates recognition services
type RecognizerFactory interface {
	CreateRecognizer(engine EngineType) (recognition.Service, error)
}

// StorageFactory creates photo stores
type StorageFactory interface {
	CreateStorage(ctx context.Context, storageType StorageType) (storage.PhotoStore, error)
}

// SourceFactory creates per-lens frame source constructors
type SourceFactory interface {
	CreateSourceFactory(sourceType SourceType) (session.SourceFactory, error)
}

// recognizerFactory implements RecognizerFactory
type recognizerFactory struct {
	opts recognition.Options
}

// NewRecognizerFactory creates a recognizer factory configured from cfg
func NewRecognizerFactory(cfg *config.Config) (RecognizerFactory, error) {
	level, err := recognition.ParseLevel(cfg.OCRLevel)
	if err != nil {
		return nil, err
	}
	return &recognizerFactory{opts: recognition.Options{
		Language:   cfg.OCRLanguage,
		Level:      level,
		Preprocess: cfg.OCRPreprocess,
	}}, nil
}

// CreateRecognizer creates a recognizer based on the specified engine
func (f *recognizerFactory) CreateRecognizer(engine EngineType) (recognition.Service, error) {
	switch engine {
	case TesseractEngine:
		t, err := recognition.NewTesseract(f.opts)
		if err != nil {
			return nil, err
		}
		return t, nil
	case StaticEngine:
		return recognition.NewStatic(""), nil
	default:
		return nil, fmt.Errorf("unsupported recognition engine: %s", engine)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(ctx context.Context, storageType StorageType) (storage.PhotoStore, error) {
	switch storageType {
	case LocalStorage:
		store, err := storage.NewLocalStore(f.cfg.CaptureDir, f.cfg.AppFolder)
		if err != nil {
			return nil, err
		}
		return store, nil
	case AzureStorage:
		store, err := storage.NewAzureStore(f.cfg.AzureAccount, f.cfg.AzureKey, f.cfg.AzureContainer)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// sourceFactory implements SourceFactory
type sourceFactory struct {
	cfg *config.Config
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config) SourceFactory {
	return &sourceFactory{cfg: cfg}
}

// CreateSourceFactory returns the constructor a session uses to open a lens.
// The front lens maps to the next capture device, or to a "front" subdirectory
// of the replay directory when one exists.
func (f *sourceFactory) CreateSourceFactory(sourceType SourceType) (session.SourceFactory, error) {
	rotation, err := models.ParseRotation(f.cfg.FrameRotation)
	if err != nil {
		return nil, err
	}

	switch sourceType {
	case ReplaySource:
		return func(lens frame.Lens) (frame.Source, error) {
			return frame.NewReplaySource(replayDir(f.cfg.ReplayDir, lens), f.cfg.FrameInterval, rotation), nil
		}, nil
	case CameraSource:
		if !frame.CameraAvailable {
			return nil, frame.ErrCameraUnsupported
		}
		return func(lens frame.Lens) (frame.Source, error) {
			device := f.cfg.CameraDevice
			if lens == frame.LensFront {
				device++
			}
			return frame.NewCameraSource(device, rotation)
		}, nil
	case NoSource:
		return func(frame.Lens) (frame.Source, error) {
			return frame.NewPushSource(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported frame source: %s", sourceType)
	}
}

func replayDir(dir string, lens frame.Lens) string {
	if lens == frame.LensFront {
		front := filepath.Join(dir, string(frame.LensFront))
		if info, err := os.Stat(front); err == nil && info.IsDir() {
			return front
		}
	}
	return dir
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	RecognizerFactory RecognizerFactory
	StorageFactory    StorageFactory
	SourceFactory     SourceFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) (*ComponentFactory, error) {
	recognizers, err := NewRecognizerFactory(cfg)
	if err != nil {
		return nil, err
	}
	return &ComponentFactory{
		RecognizerFactory: recognizers,
		StorageFactory:    NewStorageFactory(cfg),
		SourceFactory:     NewSourceFactory(cfg),
	}, nil
}
