package overlay

import (
	"image"
	"image/color"
	"testing"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

func TestParseStyle(t *testing.T) {
	style, err := ParseStyle("#00ff00", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r, g, b := style.Color.RGB255()
	if r != 0 || g != 255 || b != 0 || style.Thickness != 3 {
		t.Errorf("Unexpected style %v %v %v thickness %d", r, g, b, style.Thickness)
	}

	if _, err := ParseStyle("green", 1); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for non-hex color, got %v", err)
	}

	style, _ = ParseStyle("#123456", 0)
	if style.Thickness != 1 {
		t.Errorf("Expected thickness to default to 1, got %d", style.Thickness)
	}
}

func TestRender(t *testing.T) {
	viewport := models.DisplayMetrics{ViewportWidth: 100, ViewportHeight: 50}
	boxes := []models.OverlayBox{
		{Text: "A", Rect: models.Rect{Left: 10, Top: 10, Right: 30, Bottom: 20}},
		// Reaches past the right edge; the visible part is still drawn.
		{Text: "B", Rect: models.Rect{Left: 90, Top: 30, Right: 130, Bottom: 45}},
	}

	img := Render(boxes, viewport, DefaultStyle())
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("Unexpected canvas size %v", img.Bounds())
	}

	red := color.RGBA{R: 255, A: 255}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"top edge of A", 15, 10, red},
		{"left edge of A", 10, 15, red},
		{"inside A", 20, 15, color.RGBA{}},
		{"outside boxes", 50, 5, color.RGBA{}},
		{"clipped B top edge", 95, 30, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("Pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRender_EmptyViewport(t *testing.T) {
	img := Render([]models.OverlayBox{{Rect: models.Rect{Right: 10, Bottom: 10}}}, models.DisplayMetrics{}, DefaultStyle())
	if !img.Bounds().Empty() {
		t.Errorf("Expected empty canvas, got %v", img.Bounds())
	}
}

func TestRender_Labels(t *testing.T) {
	viewport := models.DisplayMetrics{ViewportWidth: 80, ViewportHeight: 60}
	boxes := []models.OverlayBox{{Text: "EXIT", Rect: models.Rect{Left: 10, Top: 30, Right: 70, Bottom: 50}}}

	labelPixels := func(img *image.RGBA) int {
		n := 0
		for y := 0; y < 29; y++ {
			for x := 0; x < 80; x++ {
				if img.RGBAAt(x, y).A != 0 {
					n++
				}
			}
		}
		return n
	}

	plain := Render(boxes, viewport, DefaultStyle())
	if n := labelPixels(plain); n != 0 {
		t.Errorf("Expected nothing above the box without labels, got %d pixels", n)
	}

	style := DefaultStyle()
	style.Labels = true
	labeled := Render(boxes, viewport, style)
	if n := labelPixels(labeled); n == 0 {
		t.Error("Expected label pixels above the box")
	}
}
