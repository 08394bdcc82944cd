package analyzer

import (
	"image"
	"image/draw"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

type assessor struct {
	calc MetricsCalculator
	opts QualityOptions
}

// NewAssessor creates a FrameAssessor using the given thresholds
func NewAssessor(opts QualityOptions) FrameAssessor {
	return &assessor{calc: NewMetricsCalculator(), opts: opts}
}

// Assess computes all quality metrics for img
func (a *assessor) Assess(img image.Image) models.FrameQuality {
	gray := ToGray(img)

	q := models.FrameQuality{
		LaplacianVar: a.calc.CalculateLaplacianVariance(gray),
		Brightness:   a.calc.CalculateBrightness(gray),
	}
	q.Blurry = q.LaplacianVar <= a.opts.BlurThreshold
	q.TooDark = q.Brightness < a.opts.DarkThreshold
	q.TooBright = q.Brightness > a.opts.BrightThreshold

	if !a.opts.SkipSkew {
		q.SkewAngle = a.calc.DetectSkew(gray)
	}
	return q
}

// Sharpness returns the Laplacian variance of img; higher is sharper
func (a *assessor) Sharpness(img image.Image) float64 {
	return a.calc.CalculateLaplacianVariance(ToGray(img))
}

// ToGray converts img to an 8-bit grayscale image anchored at the origin
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
