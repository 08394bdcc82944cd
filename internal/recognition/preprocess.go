package recognition

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// contrastBoost is the relative contrast change applied before OCR
const contrastBoost = 0.3

// Upright rotates img clockwise by rotation so text reads the way the viewer sees
// it. imaging rotates counter-clockwise, hence the swapped calls.
func Upright(img image.Image, rotation models.Rotation) image.Image {
	switch rotation {
	case models.Rotation90:
		return imaging.Rotate270(img)
	case models.Rotation180:
		return imaging.Rotate180(img)
	case models.Rotation270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Enhance converts img to grayscale and boosts contrast, which helps Tesseract on
// camera frames with uneven lighting.
func Enhance(img image.Image) image.Image {
	return adjust.Contrast(effect.Grayscale(img), contrastBoost)
}

// Prepare produces the PNG bytes handed to the OCR engine. After it returns the
// caller's image is no longer referenced.
func Prepare(img image.Image, rotation models.Rotation, enhance bool) ([]byte, image.Rectangle, error) {
	upright := Upright(img, rotation)
	if enhance {
		upright = Enhance(upright)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, upright, imaging.PNG); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to encode frame for OCR: %w", err)
	}
	return buf.Bytes(), upright.Bounds(), nil
}
