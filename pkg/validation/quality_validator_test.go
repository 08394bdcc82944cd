package validation

import (
	"testing"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

func issueTypes(issues []models.QualityIssue) map[string]string {
	out := make(map[string]string, len(issues))
	for _, i := range issues {
		out[i.Type] = i.Severity
	}
	return out
}

func TestValidateForOCR(t *testing.T) {
	skewed := 12.0
	straight := -2.0

	tests := []struct {
		name          string
		quality       models.FrameQuality
		width, height int
		want          map[string]string
	}{
		{
			name:    "good still",
			quality: models.FrameQuality{LaplacianVar: 800, Brightness: 140, SkewAngle: &straight},
			width:   1280,
			height:  720,
			want:    map[string]string{},
		},
		{
			name:    "blurry and dark",
			quality: models.FrameQuality{LaplacianVar: 20, Brightness: 30},
			width:   1280,
			height:  720,
			want:    map[string]string{"blurriness": "error", "too_dark": "error"},
		},
		{
			name:    "soft but usable",
			quality: models.FrameQuality{LaplacianVar: 200, Brightness: 140},
			width:   1280,
			height:  720,
			want:    map[string]string{"blurriness": "warning"},
		},
		{
			name:    "noisy and bright",
			quality: models.FrameQuality{LaplacianVar: 9000, Brightness: 240},
			width:   1280,
			height:  720,
			want:    map[string]string{"noise": "warning", "too_bright": "error"},
		},
		{
			name:    "skewed thumbnail",
			quality: models.FrameQuality{LaplacianVar: 800, Brightness: 140, SkewAngle: &skewed},
			width:   160,
			height:  120,
			want:    map[string]string{"skew": "warning", "low_resolution": "error"},
		},
	}

	qv := NewQualityValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := issueTypes(qv.ValidateForOCR(tt.quality, tt.width, tt.height))
			if len(got) != len(tt.want) {
				t.Fatalf("Expected issues %v, got %v", tt.want, got)
			}
			for typ, severity := range tt.want {
				if got[typ] != severity {
					t.Errorf("Expected %s with severity %s, got %q", typ, severity, got[typ])
				}
			}
		})
	}
}

func TestNewQualityValidatorWithThresholds(t *testing.T) {
	thresholds := DefaultQualityThresholds()
	thresholds.MinWidth = 2000
	qv := NewQualityValidatorWithThresholds(thresholds)

	issues := qv.ValidateForOCR(models.FrameQuality{LaplacianVar: 800, Brightness: 140}, 1920, 1080)
	if _, ok := issueTypes(issues)["low_resolution"]; !ok {
		t.Error("Expected custom width threshold to apply")
	}
}

func TestHasCriticalIssues(t *testing.T) {
	if HasCriticalIssues(nil) {
		t.Error("Expected no critical issues for nil slice")
	}
	if HasCriticalIssues([]models.QualityIssue{{Severity: "warning"}}) {
		t.Error("Expected warnings not to be critical")
	}
	if !HasCriticalIssues([]models.QualityIssue{{Severity: "warning"}, {Severity: "error"}}) {
		t.Error("Expected error severity to be critical")
	}
}
