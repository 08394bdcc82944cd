//go:build cgo

package recognition

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// createTextImage renders text with basicfont and scales it up for legibility
func createTextImage(text string, scale int) image.Image {
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(20), Y: fixed.I(25)},
	}
	d.DrawString(text)

	return imaging.Resize(small, width*scale, height*scale, imaging.NearestNeighbor)
}

func newTesseractOrSkip(t *testing.T, opts Options) *Tesseract {
	t.Helper()
	tess, err := NewTesseract(opts)
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	t.Cleanup(func() { tess.Close() })
	return tess
}

func TestTesseract_RecognizesRotatedFrame(t *testing.T) {
	tess := newTesseractOrSkip(t, DefaultOptions())

	upright := createTextImage("HELLO", 4)
	// A sensor frame that must be turned 90 degrees clockwise to read correctly.
	sensor := imaging.Rotate90(upright)

	result, err := tess.Recognize(context.Background(), sensor, models.Rotation90)
	if err != nil {
		t.Skipf("Tesseract could not run in this environment: %v", err)
	}

	if !strings.Contains(strings.ToUpper(result.FullText), "HELLO") {
		t.Errorf("Expected HELLO in %q", result.FullText)
	}

	bounds := upright.Bounds()
	for _, f := range result.Fragments {
		if f.BoundingBox == nil {
			t.Fatalf("Expected tesseract fragments to be localized: %+v", f)
		}
		if f.BoundingBox.Right > float64(bounds.Dx()) || f.BoundingBox.Bottom > float64(bounds.Dy()) {
			t.Errorf("Expected box %+v inside upright bounds %v", f.BoundingBox, bounds)
		}
	}
}

func TestTesseract_CanceledContext(t *testing.T) {
	tess := newTesseractOrSkip(t, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tess.Recognize(ctx, createTextImage("X", 1), models.Rotation0); err == nil {
		t.Error("Expected canceled context to abort recognition")
	}
}

func TestTesseract_DeadlinePassedWhileWaitingForEngine(t *testing.T) {
	tess := newTesseractOrSkip(t, DefaultOptions())

	// Another call is holding the engine.
	tess.mu.Lock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errs := make(chan error, 1)
	go func() {
		_, err := tess.Recognize(ctx, createTextImage("WAIT", 2), models.Rotation0)
		errs <- err
	}()

	<-ctx.Done()
	tess.mu.Unlock()

	select {
	case err := <-errs:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline error once the engine was free, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for recognition to return")
	}
}
