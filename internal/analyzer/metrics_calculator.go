package analyzer

import (
	"image"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// parallelThreshold is the pixel count above which brightness is summed in strips
const parallelThreshold = 100000

// edgeMagnitude is the Sobel magnitude that counts a pixel as an edge
const edgeMagnitude = 50

// metricsCalculator implements MetricsCalculator with Gonum statistics
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// CalculateLaplacianVariance returns the variance of the 4-neighbour Laplacian,
// a standard focus measure: blurry frames have few strong second derivatives.
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	if need := (width - 2) * (height - 2); cap(data) < need {
		data = make([]float64, 0, need)
	}
	defer func() { mc.slicePool.Put(data[:0]) }()

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// CalculateBrightness computes the mean gray level, in strips for large frames
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return 0
	}
	if width*height < parallelThreshold {
		return sumRows(gray, b.Min.Y, b.Max.Y) / float64(width*height)
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	results := make(chan float64, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := b.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > b.Max.Y {
			endY = b.Max.Y
		}
		if startY >= endY {
			break
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			results <- sumRows(gray, startY, endY)
		}(startY, endY)
	}
	wg.Wait()
	close(results)

	var total float64
	for s := range results {
		total += s
	}
	return total / float64(width*height)
}

func sumRows(gray *image.Gray, startY, endY int) float64 {
	b := gray.Bounds()
	var total float64
	for y := startY; y < endY; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
		}
	}
	return total
}

// DetectSkew estimates the dominant text line angle in degrees from edge pixels
// by linear regression. It returns nil when there are too few edges.
func (mc *metricsCalculator) DetectSkew(gray *image.Gray) *float64 {
	b := gray.Bounds()

	var xCoords, yCoords []float64
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > edgeMagnitude {
				xCoords = append(xCoords, float64(x))
				yCoords = append(yCoords, float64(y))
			}
		}
	}

	if len(xCoords) < 10 {
		return nil
	}

	angle := skewAngle(xCoords, yCoords)
	return &angle
}

func sobelX(gray *image.Gray, x, y int) int {
	return -int(gray.GrayAt(x-1, y-1).Y) + int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-int(gray.GrayAt(x-1, y+1).Y) + int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - int(gray.GrayAt(x+1, y-1).Y) +
		int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + int(gray.GrayAt(x+1, y+1).Y)
}

// skewAngle fits y = a + b*x and folds the slope angle into [-45, 45]
func skewAngle(xCoords, yCoords []float64) float64 {
	_, slope := stat.LinearRegression(xCoords, yCoords, nil, false)
	angle := math.Atan(slope) * 180 / math.Pi
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}

	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}
	return angle
}
