package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
)

// fakeBlobService answers the block blob upload and download calls of one container
type fakeBlobService struct {
	mu          sync.Mutex
	blobs       map[string][]byte
	contentType map[string]string
}

func (f *fakeBlobService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.blobs[r.URL.Path] = data
		f.contentType[r.URL.Path] = r.Header.Get("x-ms-blob-content-type")
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		data, ok := f.blobs[r.URL.Path]
		if !ok {
			w.Header().Set("x-ms-error-code", "BlobNotFound")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeAzure(t *testing.T) (*AzureStore, *fakeBlobService) {
	t.Helper()
	fake := &fakeBlobService{blobs: map[string][]byte{}, contentType: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewAzureStoreWithURL(server.URL, "devaccount", "ZGV2a2V5", "captures")
	if err != nil {
		t.Fatalf("NewAzureStoreWithURL: %v", err)
	}
	return store, fake
}

func TestAzureStore_SaveAndOpen(t *testing.T) {
	store, fake := newFakeAzure(t)
	data := jpegBytes(t, 5, 4)

	loc, err := store.Save(context.Background(), "IMG_42.jpg", data, ContentTypeJPEG)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if loc.Backend != "azure" || loc.Size != len(data) {
		t.Errorf("Unexpected location %+v", loc)
	}
	if !strings.HasSuffix(loc.URI, "/captures/IMG_42.jpg") {
		t.Errorf("Unexpected URI %q", loc.URI)
	}
	if got := fake.contentType["/captures/IMG_42.jpg"]; got != ContentTypeJPEG {
		t.Errorf("Expected content type %q, got %q", ContentTypeJPEG, got)
	}

	img, err := store.Open(context.Background(), "IMG_42.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 4 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
}

func TestAzureStore_OpenMissing(t *testing.T) {
	store, _ := newFakeAzure(t)

	_, err := store.Open(context.Background(), "IMG_404.jpg")
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestNewAzureStore_InvalidKey(t *testing.T) {
	if _, err := NewAzureStore("account", "not base64!", "captures"); !apperrors.IsType(err, apperrors.ErrorTypeStorage) {
		t.Errorf("Expected storage error for bad key, got %v", err)
	}
}
