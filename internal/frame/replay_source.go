package frame

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// ReplaySource emits the images of a directory in a loop at a fixed frame interval.
// It stands in for a camera when no capture device is available.
type ReplaySource struct {
	dispatcher

	dir      string
	interval time.Duration
	rotation models.Rotation
}

// NewReplaySource creates a source replaying the images found in dir
func NewReplaySource(dir string, interval time.Duration, rotation models.Rotation) *ReplaySource {
	return &ReplaySource{
		dir:      dir,
		interval: interval,
		rotation: rotation,
	}
}

// Run loads the directory and emits one frame per tick until ctx is done
func (s *ReplaySource) Run(ctx context.Context) error {
	images, err := LoadImages(s.dir)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"dir":      s.dir,
		"images":   len(images),
		"interval": s.interval,
	}).Info("Replay source started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.deliver(s.newFrame(images[i%len(images)], s.rotation, nil))
		}
	}
}

// LoadImages decodes every PNG or JPEG file in dir, sorted by file name
func LoadImages(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewFrameUnavailableError(fmt.Sprintf("cannot read replay directory %q", dir), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name), imaging.AutoOrientation(true))
		if err != nil {
			logger.WithError(err).WithField("file", name).Warn("Skipping undecodable replay image")
			continue
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, apperrors.NewFrameUnavailableError(fmt.Sprintf("no decodable images in %q", dir), nil)
	}
	return images, nil
}
