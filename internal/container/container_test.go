package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anime-shed/live-text-overlay-go/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  5 * time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 1 << 20,
		OCREngine:          "static",
		OCRLanguage:        "eng",
		OCRLevel:           "word",
		FrameSource:        "none",
		FrameInterval:      10 * time.Millisecond,
		CameraLens:         "back",
		StorageBackend:     "local",
		CaptureDir:         t.TempDir(),
		AppFolder:          "CuriosityBox",
		OverlayColor:       "#00ff00",
	}
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	if c.Session() == nil || c.State() == nil || c.Config() == nil {
		t.Fatal("Expected wired session, state and config")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected health 200, got %d", w.Code)
	}
}

func TestNewContainer_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{name: "Unknown engine", modify: func(cfg *config.Config) { cfg.OCREngine = "cloud" }},
		{name: "Unknown storage", modify: func(cfg *config.Config) { cfg.StorageBackend = "s3" }},
		{name: "Unknown source", modify: func(cfg *config.Config) { cfg.FrameSource = "webcam" }},
		{name: "Bad color", modify: func(cfg *config.Config) { cfg.OverlayColor = "red" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			if _, err := NewContainer(context.Background(), cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
