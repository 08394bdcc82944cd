package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// LocalStore keeps photos in a folder on the local filesystem
type LocalStore struct {
	dir string
}

// NewLocalStore creates <baseDir>/<appFolder> if needed and stores photos there
func NewLocalStore(baseDir, appFolder string) (*LocalStore, error) {
	dir, err := filepath.Abs(filepath.Join(baseDir, appFolder))
	if err != nil {
		return nil, apperrors.NewStorageError("invalid capture directory", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot create capture directory %s", dir), err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the absolute directory photos are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Backend implements PhotoStore
func (s *LocalStore) Backend() string {
	return "local"
}

// Save writes data under name. The file appears atomically: readers never see a
// partially written photo.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte, contentType string) (models.StoredLocation, error) {
	if err := ctx.Err(); err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError("save canceled", err)
	}
	path, err := s.path(name)
	if err != nil {
		return models.StoredLocation{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".capture-*")
	if err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError("cannot create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return models.StoredLocation{}, apperrors.NewStorageError("cannot write photo", err)
	}
	if err := tmp.Close(); err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError("cannot write photo", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError("cannot move photo into place", err)
	}

	return models.StoredLocation{
		URI:       (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
		Name:      name,
		Backend:   s.Backend(),
		Size:      len(data),
		CreatedAt: time.Now(),
	}, nil
}

// Open decodes the photo stored under name
func (s *LocalStore) Open(ctx context.Context, name string) (image.Image, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("capture %s not found", name), err)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot read capture %s", name), err)
	}
	return img, nil
}

// path resolves name inside the store directory
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid photo name %q", name), nil)
	}
	return filepath.Join(s.dir, name), nil
}
