package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Style controls how boxes are outlined
type Style struct {
	Color     colorful.Color
	Thickness int
	// Labels writes each box's text just above its outline
	Labels bool
}

// DefaultStyle draws 2px red outlines
func DefaultStyle() Style {
	return Style{Color: colorful.Color{R: 1}, Thickness: 2}
}

// ParseStyle builds a Style from a hex color such as "#00ff88"
func ParseStyle(hex string, thickness int) (Style, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Style{}, apperrors.NewValidationError("invalid overlay color "+hex, err)
	}
	if thickness <= 0 {
		thickness = 1
	}
	return Style{Color: c.Clamped(), Thickness: thickness}, nil
}

// Render draws the outlines of boxes on a transparent canvas the size of viewport.
// Parts of boxes outside the canvas are cut off.
func Render(boxes []models.OverlayBox, viewport models.DisplayMetrics, style Style) *image.RGBA {
	w := int(math.Round(viewport.ViewportWidth))
	h := int(math.Round(viewport.ViewportHeight))
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	r, g, b := style.Color.RGB255()
	src := image.NewUniform(color.RGBA{R: r, G: g, B: b, A: 255})
	t := style.Thickness
	if t <= 0 {
		t = 1
	}

	for _, box := range boxes {
		outer := image.Rect(
			int(math.Floor(box.Rect.Left)),
			int(math.Floor(box.Rect.Top)),
			int(math.Ceil(box.Rect.Right)),
			int(math.Ceil(box.Rect.Bottom)),
		)
		if outer.Empty() {
			continue
		}
		edges := []image.Rectangle{
			image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+t),
			image.Rect(outer.Min.X, outer.Max.Y-t, outer.Max.X, outer.Max.Y),
			image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+t, outer.Max.Y),
			image.Rect(outer.Max.X-t, outer.Min.Y, outer.Max.X, outer.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(canvas, e.Intersect(canvas.Rect), src, image.Point{}, draw.Src)
		}
		if style.Labels && box.Text != "" {
			drawLabel(canvas, src, box.Text, outer.Min)
		}
	}
	return canvas
}

// drawLabel writes text with its baseline one pixel above at, or inside the
// box when there is no room above it.
func drawLabel(dst draw.Image, src image.Image, text string, at image.Point) {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	y := at.Y - 1 - face.Descent
	if y-ascent < 0 {
		y = at.Y + ascent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(at.X, y),
	}
	d.DrawString(text)
}
