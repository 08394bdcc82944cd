//go:build !gocv

package frame

import (
	"errors"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// CameraAvailable reports whether this binary was built with capture device support
const CameraAvailable = false

// ErrCameraUnsupported is returned when the binary was built without the gocv tag
var ErrCameraUnsupported = errors.New("camera capture requires building with -tags gocv")

// NewCameraSource is unavailable without OpenCV support
func NewCameraSource(device int, rotation models.Rotation) (Source, error) {
	return nil, ErrCameraUnsupported
}
