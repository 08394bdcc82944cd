package recognition

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

func TestStatic_ReturnsIndependentCopies(t *testing.T) {
	box := &models.Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}
	svc := NewStatic("HELLO", models.TextFragment{Text: "HELLO", BoundingBox: box})

	first, err := svc.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)), models.Rotation0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	first.Fragments[0].Text = "mutated"

	second, err := svc.Recognize(context.Background(), nil, models.Rotation90)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Fragments[0].Text != "HELLO" {
		t.Errorf("Expected static result to be unaffected by caller mutation, got %q", second.Fragments[0].Text)
	}
	if second.FullText != "HELLO" {
		t.Errorf("Expected full text HELLO, got %q", second.FullText)
	}
}

func TestStatic_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewStatic("x").Recognize(ctx, nil, models.Rotation0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFunc_Adapter(t *testing.T) {
	var gotRotation models.Rotation
	svc := Func(func(ctx context.Context, img image.Image, rotation models.Rotation) (*models.RecognitionResult, error) {
		gotRotation = rotation
		return &models.RecognitionResult{FullText: "ok"}, nil
	})

	var _ Service = svc
	result, err := svc.Recognize(context.Background(), nil, models.Rotation270)
	if err != nil || result.FullText != "ok" {
		t.Fatalf("Unexpected result %+v, err %v", result, err)
	}
	if gotRotation != models.Rotation270 {
		t.Errorf("Expected rotation to be forwarded, got %d", gotRotation)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"word", LevelWord, false},
		{"LINE", LevelLine, false},
		{" block ", LevelBlock, false},
		{"", LevelWord, false},
		{"symbol", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseLevel(%q) = %q, %v; expected %q", tt.input, got, err, tt.expected)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Language != "eng" {
		t.Errorf("Expected eng, got %q", opts.Language)
	}
	if opts.Level != LevelWord {
		t.Errorf("Expected word level, got %q", opts.Level)
	}
	if !opts.Preprocess {
		t.Error("Expected preprocessing to be enabled by default")
	}
}
