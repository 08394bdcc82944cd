//go:build !cgo

package recognition

import (
	"context"
	"errors"
	"image"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// TesseractAvailable reports whether the Tesseract adapter is compiled in
const TesseractAvailable = false

// ErrTesseractUnavailable is returned when the binary was built without cgo
var ErrTesseractUnavailable = errors.New("tesseract OCR requires a cgo build")

// Tesseract is a placeholder for builds without cgo
type Tesseract struct{}

// NewTesseract always fails without cgo
func NewTesseract(opts Options) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

// Recognize always fails without cgo
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error) {
	return nil, ErrTesseractUnavailable
}

// Close is a no-op
func (t *Tesseract) Close() error {
	return nil
}
