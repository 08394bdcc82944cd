package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func fillGray(w, h int, value func(x, y int) uint8) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.SetGray(x, y, color.Gray{value(x, y)})
		}
	}
	return gray
}

func TestNewMetricsCalculator(t *testing.T) {
	calc := NewMetricsCalculator()
	if calc == nil {
		t.Error("Expected non-nil metrics calculator")
	}
}

func TestCalculateLaplacianVariance(t *testing.T) {
	calc := NewMetricsCalculator()

	// Uniform image should have no variance
	uniform := fillGray(100, 100, func(x, y int) uint8 { return 128 })
	if v := calc.CalculateLaplacianVariance(uniform); v > 10 {
		t.Errorf("Expected low variance for uniform image, got %f", v)
	}

	// Sharp vertical edge
	edge := fillGray(100, 100, func(x, y int) uint8 {
		if x < 50 {
			return 0
		}
		return 255
	})
	if v := calc.CalculateLaplacianVariance(edge); v < 100 {
		t.Errorf("Expected higher variance for edge image, got %f", v)
	}
}

func TestCalculateLaplacianVariance_TinyImage(t *testing.T) {
	calc := NewMetricsCalculator()
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	if v := calc.CalculateLaplacianVariance(gray); v != 0 {
		t.Errorf("Expected 0 for image without interior pixels, got %f", v)
	}
}

func TestCalculateLaplacianVariance_OffsetBounds(t *testing.T) {
	calc := NewMetricsCalculator()
	edge := fillGray(60, 60, func(x, y int) uint8 {
		if x < 30 {
			return 0
		}
		return 255
	})
	sub := edge.SubImage(image.Rect(10, 10, 50, 50)).(*image.Gray)

	if v := calc.CalculateLaplacianVariance(sub); v < 100 {
		t.Errorf("Expected edge to be found in sub-image, got %f", v)
	}
}

func TestCalculateBrightness(t *testing.T) {
	calc := NewMetricsCalculator()

	testCases := []struct {
		name           string
		size           int
		grayValue      uint8
		expectedBright float64
	}{
		{"Black Image", 50, 0, 0.0},
		{"Gray Image", 50, 128, 128.0},
		{"White Image", 50, 255, 255.0},
		{"Large Gray Image", 400, 90, 90.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gray := fillGray(tc.size, tc.size, func(x, y int) uint8 { return tc.grayValue })

			brightness := calc.CalculateBrightness(gray)
			if math.Abs(brightness-tc.expectedBright) > 1.0 {
				t.Errorf("Expected brightness ~%f, got %f", tc.expectedBright, brightness)
			}
		})
	}
}

func TestDetectSkew(t *testing.T) {
	calc := NewMetricsCalculator()

	flat := fillGray(100, 100, func(x, y int) uint8 { return 200 })
	if angle := calc.DetectSkew(flat); angle != nil {
		t.Errorf("Expected nil angle without edges, got %f", *angle)
	}

	// Horizontal boundary between a dark and a light half
	horizontal := fillGray(100, 100, func(x, y int) uint8 {
		if y < 50 {
			return 0
		}
		return 255
	})
	angle := calc.DetectSkew(horizontal)
	if angle == nil {
		t.Fatal("Expected an angle for an image with a strong edge")
	}
	if math.Abs(*angle) > 1 {
		t.Errorf("Expected a near-zero angle for a horizontal edge, got %f", *angle)
	}
}

func TestSkewAngle_FoldsIntoRange(t *testing.T) {
	// Slope of 2 is about 63 degrees, folded to about -27
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 2, 4, 6, 8}

	angle := skewAngle(xs, ys)
	if angle < -45 || angle > 45 {
		t.Errorf("Expected angle in [-45, 45], got %f", angle)
	}
	if math.Abs(angle-(math.Atan(2)*180/math.Pi-90)) > 1e-6 {
		t.Errorf("Unexpected folded angle %f", angle)
	}
}
