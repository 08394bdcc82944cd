package service

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

type fakeImages struct {
	img     image.Image
	fetched []string
	opened  []string
}

func (f *fakeImages) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	f.fetched = append(f.fetched, imageURL)
	return f.img, nil
}

func (f *fakeImages) OpenCapture(ctx context.Context, name string) (image.Image, error) {
	f.opened = append(f.opened, name)
	return f.img, nil
}

func (f *fakeImages) ValidateImageURL(string) error { return nil }

func TestRecognitionService_RecognizeStill(t *testing.T) {
	images := &fakeImages{img: newStill(60, 30)}
	box := models.Rect{Left: 1, Top: 2, Right: 10, Bottom: 8}
	recognizer := recognition.NewStatic("hello world", models.TextFragment{Text: "hello", BoundingBox: &box})
	svc := NewRecognitionService(images, recognizer, nil)

	tests := []struct {
		name       string
		req        models.RecognizeRequest
		wantSource string
	}{
		{
			name:       "URL source",
			req:        models.RecognizeRequest{URL: "https://example.com/sign.png", Rotation: 90},
			wantSource: "https://example.com/sign.png",
		},
		{
			name:       "Capture source",
			req:        models.RecognizeRequest{Capture: "IMG_1700000000000.jpg", Rotation: 90},
			wantSource: "capture:IMG_1700000000000.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.RecognizeStill(context.Background(), &tt.req)
			if err != nil {
				t.Fatalf("RecognizeStill: %v", err)
			}
			if resp.Source != tt.wantSource {
				t.Errorf("Expected source %q, got %q", tt.wantSource, resp.Source)
			}
			want := models.FrameGeometry{Width: 60, Height: 30, Rotation: models.Rotation90}
			if resp.Result.Frame != want {
				t.Errorf("Expected frame %+v, got %+v", want, resp.Result.Frame)
			}
			if resp.Quality == nil {
				t.Error("Expected quality metrics")
			}
			if len(resp.QualityIssues) == 0 || resp.OCRReady {
				t.Error("Expected a low resolution issue to make a 30x60 still not OCR ready")
			}
			if resp.Accuracy != nil {
				t.Error("Accuracy must be omitted without expected text")
			}
		})
	}

	if len(images.fetched) != 1 || len(images.opened) != 1 {
		t.Errorf("Expected one fetch and one capture open, got %v and %v", images.fetched, images.opened)
	}
}

func TestRecognitionService_ScoresExpectedText(t *testing.T) {
	svc := NewRecognitionService(&fakeImages{}, recognition.NewStatic("hello world"), nil)

	resp, err := svc.RecognizeImage(context.Background(), newStill(10, 10), models.Rotation0, "hello word", UploadSource)
	if err != nil {
		t.Fatalf("RecognizeImage: %v", err)
	}
	if resp.Accuracy == nil {
		t.Fatal("Expected accuracy score")
	}
	if math.Abs(resp.Accuracy.WER-0.5) > 1e-9 {
		t.Errorf("Expected WER 0.5, got %v", resp.Accuracy.WER)
	}
	if resp.Accuracy.CharEdits != 1 {
		t.Errorf("Expected one character edit, got %d", resp.Accuracy.CharEdits)
	}
}

func TestRecognitionService_Errors(t *testing.T) {
	failing := func(err error) recognition.Service {
		return recognition.Func(func(ctx context.Context, img image.Image, r models.Rotation) (*models.RecognitionResult, error) {
			return nil, err
		})
	}
	empty := recognition.Func(func(ctx context.Context, img image.Image, r models.Rotation) (*models.RecognitionResult, error) {
		return nil, nil
	})

	tests := []struct {
		name       string
		recognizer recognition.Service
		req        models.RecognizeRequest
		wantType   apperrors.ErrorType
	}{
		{
			name:       "Both sources",
			recognizer: recognition.NewStatic(""),
			req:        models.RecognizeRequest{URL: "https://example.com/a.png", Capture: "IMG_1.jpg"},
			wantType:   apperrors.ErrorTypeValidation,
		},
		{
			name:       "Bad rotation",
			recognizer: recognition.NewStatic(""),
			req:        models.RecognizeRequest{Capture: "IMG_1.jpg", Rotation: 45},
			wantType:   apperrors.ErrorTypeValidation,
		},
		{
			name:       "Engine failure",
			recognizer: failing(errors.New("engine crashed")),
			req:        models.RecognizeRequest{Capture: "IMG_1.jpg"},
			wantType:   apperrors.ErrorTypeRecognition,
		},
		{
			name:       "Engine timeout",
			recognizer: failing(context.DeadlineExceeded),
			req:        models.RecognizeRequest{Capture: "IMG_1.jpg"},
			wantType:   apperrors.ErrorTypeTimeout,
		},
		{
			name:       "No result",
			recognizer: empty,
			req:        models.RecognizeRequest{Capture: "IMG_1.jpg"},
			wantType:   apperrors.ErrorTypeRecognition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRecognitionService(&fakeImages{img: newStill(10, 10)}, tt.recognizer, nil)
			_, err := svc.RecognizeStill(context.Background(), &tt.req)
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestRecognitionService_NilImage(t *testing.T) {
	svc := NewRecognitionService(&fakeImages{}, recognition.NewStatic(""), nil)
	if _, err := svc.RecognizeImage(context.Background(), nil, models.Rotation0, "", UploadSource); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
