package validation

import (
	"math"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// QualityThresholds defines configurable thresholds for still image validation
type QualityThresholds struct {
	MinLaplacianVariance       float64
	MaxLaplacianVariance       float64
	MinLaplacianVarianceForOCR float64

	MinBrightness float64
	MaxBrightness float64

	// MaxSkewAngle is in degrees
	MaxSkewAngle float64

	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns the default quality thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance:       100.0,
		MaxLaplacianVariance:       5000.0,
		MinLaplacianVarianceForOCR: 300.0,
		MinBrightness:              80.0,
		MaxBrightness:              220.0,
		MaxSkewAngle:               5.0,
		MinWidth:                   320,
		MinHeight:                  240,
	}
}

// QualityValidator turns frame quality metrics into user facing issues
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{thresholds: DefaultQualityThresholds()}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{thresholds: thresholds}
}

// ValidateForOCR reports why a still of the given size may recognize poorly
func (qv *QualityValidator) ValidateForOCR(q models.FrameQuality, width, height int) []models.QualityIssue {
	var issues []models.QualityIssue

	// 1. Sharpness
	switch {
	case q.LaplacianVar <= qv.thresholds.MinLaplacianVariance:
		issues = append(issues, models.QualityIssue{
			Type:        "blurriness",
			Message:     "Image is blurry. Hold the camera steady and try again.",
			Severity:    "error",
			ActualValue: q.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	case q.LaplacianVar <= qv.thresholds.MinLaplacianVarianceForOCR:
		issues = append(issues, models.QualityIssue{
			Type:        "blurriness",
			Message:     "Image is slightly soft; small text may not be recognized.",
			Severity:    "warning",
			ActualValue: q.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVarianceForOCR,
		})
	case q.LaplacianVar >= qv.thresholds.MaxLaplacianVariance:
		issues = append(issues, models.QualityIssue{
			Type:        "noise",
			Message:     "Image is very noisy. Use more light and avoid digital zoom.",
			Severity:    "warning",
			ActualValue: q.LaplacianVar,
			Threshold:   qv.thresholds.MaxLaplacianVariance,
		})
	}

	// 2. Exposure
	if q.Brightness < qv.thresholds.MinBrightness {
		issues = append(issues, models.QualityIssue{
			Type:        "too_dark",
			Message:     "Image is too dark. Take the photo in more light.",
			Severity:    "error",
			ActualValue: q.Brightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	} else if q.Brightness > qv.thresholds.MaxBrightness {
		issues = append(issues, models.QualityIssue{
			Type:        "too_bright",
			Message:     "Image is too bright. Avoid strong sunlight or flash.",
			Severity:    "error",
			ActualValue: q.Brightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	// 3. Skew
	if q.SkewAngle != nil && math.Abs(*q.SkewAngle) > qv.thresholds.MaxSkewAngle {
		issues = append(issues, models.QualityIssue{
			Type:        "skew",
			Message:     "Text is tilted. Hold the camera parallel to the text.",
			Severity:    "warning",
			ActualValue: math.Abs(*q.SkewAngle),
			Threshold:   qv.thresholds.MaxSkewAngle,
		})
	}

	// 4. Resolution
	if width < qv.thresholds.MinWidth || height < qv.thresholds.MinHeight {
		issues = append(issues, models.QualityIssue{
			Type:        "low_resolution",
			Message:     "Image is too small. Move closer or use a higher resolution.",
			Severity:    "error",
			ActualValue: float64(width * height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	return issues
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func HasCriticalIssues(issues []models.QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
