// Package storage persists captured photos and fetches still images for recognition.
package storage

import (
	"context"
	"image"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// ContentTypeJPEG is the content type of captured photos
const ContentTypeJPEG = "image/jpeg"

// PhotoStore saves encoded photos and reads them back by name
type PhotoStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (models.StoredLocation, error)
	Open(ctx context.Context, name string) (image.Image, error)
	Backend() string
}
