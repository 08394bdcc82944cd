// Package recognition defines the text recognition service the pipeline calls and
// the adapters that implement it.
//
// Bounding boxes returned by a Service are expressed in the upright frame: the
// image after applying the frame's rotation. Its width and height are therefore
// the frame's effective extent, which is what the overlay mapper scales from.
package recognition

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Service recognizes text in an image. Implementations must not read img after
// Recognize returns or after ctx is done; the caller may release the frame
// behind img at either point.
type Service interface {
	Recognize(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error)
}

// Func adapts a function to the Service interface
type Func func(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error)

// Recognize calls f
func (f Func) Recognize(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error) {
	return f(ctx, img, rotation)
}

// Static returns the same result for every image. It backs demos and tests when
// no OCR engine is installed.
type Static struct {
	Result models.RecognitionResult
}

// NewStatic creates a Static service answering with text and fragments
func NewStatic(fullText string, fragments ...models.TextFragment) *Static {
	return &Static{Result: models.RecognitionResult{FullText: fullText, Fragments: fragments}}
}

// Recognize returns a copy of the configured result
func (s *Static) Recognize(ctx context.Context, _ image.Image, _ models.Rotation) (*models.RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.Result
	out.Fragments = append([]models.TextFragment(nil), s.Result.Fragments...)
	return &out, nil
}

// Level is the granularity at which fragments are reported
type Level string

const (
	LevelWord  Level = "word"
	LevelLine  Level = "line"
	LevelBlock Level = "block"
)

// ParseLevel validates a configured fragment level
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelWord, LevelLine, LevelBlock:
		return l, nil
	case "":
		return LevelWord, nil
	default:
		return "", fmt.Errorf("unsupported fragment level %q", s)
	}
}

// Options configures an OCR engine adapter
type Options struct {
	Language   string
	Level      Level
	Preprocess bool
}

// DefaultOptions mirrors the element-level recognition of a live viewfinder
func DefaultOptions() Options {
	return Options{
		Language:   "eng",
		Level:      LevelWord,
		Preprocess: true,
	}
}
