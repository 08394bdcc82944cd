// Package overlay maps recognized text boxes from frame space into the viewport a
// renderer draws into.
//
// Boxes are scaled with independent horizontal and vertical factors, matching a
// fill/stretch preview. They are not clamped: a box reaching past the frame edge
// maps past the viewport edge.
package overlay

import (
	"fmt"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// MapRect scales rect from the upright frame described by g into viewport.
// It fails with a mapping precondition error when g has no extent yet, which
// callers must gate on before mapping.
func MapRect(rect models.Rect, g models.FrameGeometry, viewport models.DisplayMetrics) (models.Rect, error) {
	scaleX, scaleY, err := scaleFactors(g, viewport)
	if err != nil {
		return models.Rect{}, err
	}
	return scale(rect, scaleX, scaleY), nil
}

// MapFragments maps every localized fragment of result with the geometry of the
// frame it was recognized in. Fragments without a box are skipped.
func MapFragments(result *models.RecognitionResult, viewport models.DisplayMetrics) ([]models.OverlayBox, error) {
	if result == nil {
		return nil, nil
	}
	scaleX, scaleY, err := scaleFactors(result.Frame, viewport)
	if err != nil {
		return nil, err
	}

	localized := result.Localized()
	boxes := make([]models.OverlayBox, 0, len(localized))
	for _, f := range localized {
		boxes = append(boxes, models.OverlayBox{
			Text: f.Text,
			Rect: scale(*f.BoundingBox, scaleX, scaleY),
		})
	}
	return boxes, nil
}

func scaleFactors(g models.FrameGeometry, viewport models.DisplayMetrics) (float64, float64, error) {
	if !g.Rotation.Valid() {
		return 0, 0, apperrors.NewMappingPreconditionError(
			fmt.Sprintf("unsupported rotation %d", g.Rotation), nil)
	}
	effectiveWidth, effectiveHeight := g.EffectiveExtent()
	if effectiveWidth <= 0 || effectiveHeight <= 0 {
		return 0, 0, apperrors.NewMappingPreconditionError("no frame has been analyzed yet", nil)
	}
	if viewport.ViewportWidth <= 0 || viewport.ViewportHeight <= 0 {
		return 0, 0, apperrors.NewMappingPreconditionError(
			fmt.Sprintf("viewport %gx%g has no area", viewport.ViewportWidth, viewport.ViewportHeight), nil)
	}
	return viewport.ViewportWidth / effectiveWidth, viewport.ViewportHeight / effectiveHeight, nil
}

func scale(r models.Rect, scaleX, scaleY float64) models.Rect {
	return models.Rect{
		Left:   r.Left * scaleX,
		Top:    r.Top * scaleY,
		Right:  r.Right * scaleX,
		Bottom: r.Bottom * scaleY,
	}
}
