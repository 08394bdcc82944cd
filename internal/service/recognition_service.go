package service

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/live-text-overlay-go/internal/analyzer"
	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/internal/repository"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
	"github.com/anime-shed/live-text-overlay-go/pkg/validation"
)

// UploadSource names images posted in a request body
const UploadSource = "upload"

// RecognitionService runs one-shot recognition on still images, outside the
// live pipeline
type RecognitionService interface {
	// RecognizeStill resolves the image named by req and recognizes it
	RecognizeStill(ctx context.Context, req *models.RecognizeRequest) (*models.RecognizeResponse, error)

	// RecognizeImage recognizes an image the caller already holds
	RecognizeImage(ctx context.Context, img image.Image, rotation models.Rotation, expectedText, source string) (*models.RecognizeResponse, error)
}

type recognitionService struct {
	images     repository.ImageRepository
	recognizer recognition.Service
	assessor   analyzer.FrameAssessor
	quality    *validation.QualityValidator
	validator  *validation.RequestValidator
}

// NewRecognitionService creates a still recognition service. Stills are
// assessed with the stricter OCR quality options.
func NewRecognitionService(images repository.ImageRepository, recognizer recognition.Service, validator *validation.RequestValidator) RecognitionService {
	if validator == nil {
		validator = validation.NewRequestValidator()
	}

	opts := analyzer.OCROptions()
	thresholds := validation.DefaultQualityThresholds()
	thresholds.MinLaplacianVarianceForOCR = opts.BlurThreshold
	thresholds.MinBrightness = opts.DarkThreshold
	thresholds.MaxBrightness = opts.BrightThreshold

	return &recognitionService{
		images:     images,
		recognizer: recognizer,
		assessor:   analyzer.NewAssessor(opts),
		quality:    validation.NewQualityValidatorWithThresholds(thresholds),
		validator:  validator,
	}
}

func (s *recognitionService) RecognizeStill(ctx context.Context, req *models.RecognizeRequest) (*models.RecognizeResponse, error) {
	rotation, err := s.validator.ValidateRecognizeRequest(req)
	if err != nil {
		return nil, err
	}

	var (
		img    image.Image
		source string
	)
	if req.URL != "" {
		source = req.URL
		img, err = s.images.FetchImage(ctx, req.URL)
	} else {
		source = "capture:" + req.Capture
		img, err = s.images.OpenCapture(ctx, req.Capture)
	}
	if err != nil {
		logger.WithError(err).WithField("source", source).Error("Failed to load still image")
		return nil, err
	}

	return s.RecognizeImage(ctx, img, rotation, req.ExpectedText, source)
}

func (s *recognitionService) RecognizeImage(ctx context.Context, img image.Image, rotation models.Rotation, expectedText, source string) (*models.RecognizeResponse, error) {
	if img == nil {
		return nil, apperrors.NewValidationError("image is empty", nil)
	}
	start := time.Now()

	upright := recognition.Upright(img, rotation)
	bounds := upright.Bounds()
	quality := s.assessor.Assess(upright)
	issues := s.quality.ValidateForOCR(quality, bounds.Dx(), bounds.Dy())

	result, err := s.recognizer.Recognize(ctx, img, rotation)
	if err != nil {
		return nil, asRecognitionError(err)
	}
	if result == nil {
		return nil, apperrors.NewRecognitionError("recognizer returned no result", nil)
	}

	b := img.Bounds()
	result.Frame = models.FrameGeometry{Width: b.Dx(), Height: b.Dy(), Rotation: rotation}
	result.CompletedAt = time.Now()

	response := &models.RecognizeResponse{
		Source:            source,
		Timestamp:         result.CompletedAt.Format(time.RFC3339),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Result:            result,
		Quality:           &quality,
		QualityIssues:     issues,
		OCRReady:          !validation.HasCriticalIssues(issues),
	}
	if expectedText != "" {
		score := recognition.Score(expectedText, result.FullText)
		response.Accuracy = &score
	}

	logger.WithFields(logrus.Fields{
		"source":             source,
		"fragments":          len(result.Fragments),
		"quality_issues":     len(issues),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Info("Still recognition completed")

	return response, nil
}

func asRecognitionError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("recognition timed out", err)
	}
	return apperrors.NewRecognitionError("text recognition failed", err)
}
