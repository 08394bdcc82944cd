package repository

import (
	"context"
	"image"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/storage"
	"github.com/anime-shed/live-text-overlay-go/pkg/validation"
)

// StillImageRepository implements ImageRepository on top of an HTTP fetcher and
// the capture photo store
type StillImageRepository struct {
	fetcher   storage.ImageFetcher
	photos    storage.PhotoStore
	validator *validation.RequestValidator
}

// NewImageRepository creates a repository. Either collaborator may be nil, in
// which case the matching lookups fail.
func NewImageRepository(fetcher storage.ImageFetcher, photos storage.PhotoStore, validator *validation.RequestValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewRequestValidator()
	}
	return &StillImageRepository{
		fetcher:   fetcher,
		photos:    photos,
		validator: validator,
	}
}

// FetchImage retrieves an image from a URL
func (r *StillImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	if r.fetcher == nil {
		return nil, apperrors.NewInternalError("cannot fetch image", ErrFetcherUnavailable)
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// OpenCapture loads a captured photo by the name the capture service gave it
func (r *StillImageRepository) OpenCapture(ctx context.Context, name string) (image.Image, error) {
	if err := validation.ValidateCaptureName(name); err != nil {
		return nil, err
	}
	if r.photos == nil {
		return nil, apperrors.NewStorageError("cannot open capture", ErrCaptureStoreUnavailable)
	}
	return r.photos.Open(ctx, name)
}

// ValidateImageURL validates a URL
func (r *StillImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
