//go:build cgo

package recognition

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// TesseractAvailable reports whether the Tesseract adapter is compiled in
const TesseractAvailable = true

// Tesseract recognizes text with the Tesseract engine through gosseract.
// A single client is reused; calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	opts   Options
}

// NewTesseract creates a Tesseract-backed Service
func NewTesseract(opts Options) (*Tesseract, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Tesseract{client: client, opts: opts}, nil
}

// Recognize runs OCR on the upright version of img
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := Prepare(img, rotation, t.opts.Preprocess)
	if err != nil {
		return nil, apperrors.NewRecognitionError("failed to prepare frame", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// A call that waited out its deadline on the lock must not start the engine.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, apperrors.NewRecognitionError("failed to set image", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return nil, apperrors.NewRecognitionError("OCR failed", err)
	}

	boxes, err := t.client.GetBoundingBoxes(pageLevel(t.opts.Level))
	if err != nil {
		return nil, apperrors.NewRecognitionError("failed to get bounding boxes", err)
	}

	// The engine cannot be interrupted; a result produced after cancellation is stale.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fragments := make([]models.TextFragment, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		fragments = append(fragments, models.TextFragment{
			Text: word,
			BoundingBox: &models.Rect{
				Left:   float64(box.Box.Min.X),
				Top:    float64(box.Box.Min.Y),
				Right:  float64(box.Box.Max.X),
				Bottom: float64(box.Box.Max.Y),
			},
			Confidence: box.Confidence / 100.0,
		})
	}

	return &models.RecognitionResult{
		FullText:    strings.TrimSpace(text),
		Fragments:   fragments,
		CompletedAt: time.Now(),
	}, nil
}

// Close releases the underlying Tesseract client
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

func pageLevel(l Level) gosseract.PageIteratorLevel {
	switch l {
	case LevelLine:
		return gosseract.RIL_TEXTLINE
	case LevelBlock:
		return gosseract.RIL_BLOCK
	default:
		return gosseract.RIL_WORD
	}
}
