package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// MaxViewportSide bounds the viewport a client may ask the overlay to be mapped into
const MaxViewportSide = 16384

var captureNamePattern = regexp.MustCompile(`^IMG_[0-9]+\.jpg$`)

// RequestValidator checks client input before it reaches the services
type RequestValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewRequestValidator accepts http and https image URLs on any host
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewRequestValidatorWithOptions restricts image URLs to the given schemes and hosts
func NewRequestValidatorWithOptions(schemes []string, hosts []string) *RequestValidator {
	return &RequestValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL validates a still image URL
func (v *RequestValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if !contains(v.allowedSchemes, parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

// ValidateRecognizeRequest checks that exactly one image source is set and
// returns the requested rotation
func (v *RequestValidator) ValidateRecognizeRequest(req *models.RecognizeRequest) (models.Rotation, error) {
	hasURL := strings.TrimSpace(req.URL) != ""
	hasCapture := strings.TrimSpace(req.Capture) != ""

	switch {
	case hasURL && hasCapture:
		return 0, apperrors.NewValidationError("Set either url or capture, not both", nil)
	case hasURL:
		if err := v.ValidateImageURL(req.URL); err != nil {
			return 0, err
		}
	case hasCapture:
		if err := ValidateCaptureName(req.Capture); err != nil {
			return 0, err
		}
	default:
		return 0, apperrors.NewValidationError("One of url or capture is required", nil)
	}

	return ValidateRotation(req.Rotation)
}

// ValidateRotation converts a degree value from a request into a Rotation
func ValidateRotation(degrees int) (models.Rotation, error) {
	r, err := models.ParseRotation(degrees)
	if err != nil {
		return 0, apperrors.NewValidationError("Invalid rotation", err)
	}
	return r, nil
}

// ValidateViewport checks the size of the viewport an overlay is requested for
func ValidateViewport(width, height float64) (models.DisplayMetrics, error) {
	if width <= 0 || height <= 0 {
		return models.DisplayMetrics{}, apperrors.NewValidationError(
			"Viewport width and height must be positive", nil)
	}
	if width > MaxViewportSide || height > MaxViewportSide {
		return models.DisplayMetrics{}, apperrors.NewValidationError(
			fmt.Sprintf("Viewport sides must not exceed %d", MaxViewportSide), nil)
	}
	return models.DisplayMetrics{ViewportWidth: width, ViewportHeight: height}, nil
}

// ValidateCaptureName accepts only names produced by the capture service, which
// keeps client input from escaping the capture folder
func ValidateCaptureName(name string) error {
	if !captureNamePattern.MatchString(name) {
		return apperrors.NewValidationError("Invalid capture name", nil)
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
