package repository

import (
	"context"
	"image"
)

// ImageRepository resolves the still images a one-shot recognition runs on
type ImageRepository interface {
	// FetchImage downloads an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// OpenCapture loads a photo saved by the capture service
	OpenCapture(ctx context.Context, name string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}
