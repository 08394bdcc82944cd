// Package analyzer measures how usable a frame is for text recognition.
package analyzer

import (
	"image"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// FrameAssessor rates the sharpness and exposure of a frame
type FrameAssessor interface {
	Assess(img image.Image) models.FrameQuality
	Sharpness(img image.Image) float64
}

// MetricsCalculator handles per-pixel metric computation on grayscale images
type MetricsCalculator interface {
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
	DetectSkew(gray *image.Gray) *float64
}
