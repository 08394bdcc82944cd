//go:build gocv

package frame

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// CameraSource reads frames from a local capture device through OpenCV.
// Each frame keeps its Mat alive until the frame is released.
type CameraSource struct {
	dispatcher

	device   int
	rotation models.Rotation
}

// CameraAvailable reports whether this binary was built with capture device support
const CameraAvailable = true

// NewCameraSource creates a source for the given capture device index
func NewCameraSource(device int, rotation models.Rotation) (Source, error) {
	return &CameraSource{device: device, rotation: rotation}, nil
}

// Run opens the device and delivers frames until ctx is done or the device fails
func (s *CameraSource) Run(ctx context.Context) error {
	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("failed to open capture device %d: %w", s.device, err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return fmt.Errorf("capture device %d is not opened", s.device)
	}

	logger.WithField("device", s.device).Info("Camera source started")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		mat := gocv.NewMat()
		if ok := capture.Read(&mat); !ok {
			mat.Close()
			return fmt.Errorf("capture device %d stopped delivering frames", s.device)
		}
		if mat.Empty() {
			mat.Close()
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			logger.WithError(err).Debug("Dropping frame that could not be converted")
			mat.Close()
			continue
		}

		m := mat
		s.deliver(s.newFrame(img, s.rotation, func() { m.Close() }))
	}
}
