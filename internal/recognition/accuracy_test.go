package recognition

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		actual    string
		wer       float64
		accuracy  float64
		cer       float64
		wordEdits int
		charEdits int
	}{
		{"exact match", "the quick brown fox", "the quick brown fox", 0, 1, 0, 0, 0},
		{"case and spacing ignored", "Hello   World", "hello world", 0, 1, 0, 0, 0},
		{"one substituted word", "hello world", "hello word", 0.5, 0.5, 1.0 / 11.0, 1, 1},
		{"two of four words wrong", "turn left at exit", "turn right at exif", 0.5, 0.5, 5.0 / 17.0, 2, 5},
		{"both empty", "", "", 0, 1, 0, 0, 0},
		{"nothing expected", "", "noise", 1, 0, 1, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.expected, tt.actual)
			if math.Abs(score.WER-tt.wer) > 1e-9 {
				t.Errorf("Expected WER %v, got %v", tt.wer, score.WER)
			}
			if math.Abs(score.WordAccuracy-tt.accuracy) > 1e-9 {
				t.Errorf("Expected word accuracy %v, got %v", tt.accuracy, score.WordAccuracy)
			}
			if math.Abs(score.CER-tt.cer) > 1e-9 {
				t.Errorf("Expected CER %v, got %v", tt.cer, score.CER)
			}
			if score.WordEdits != tt.wordEdits {
				t.Errorf("Expected %d word edits, got %d", tt.wordEdits, score.WordEdits)
			}
			if score.CharEdits != tt.charEdits {
				t.Errorf("Expected %d char edits, got %d", tt.charEdits, score.CharEdits)
			}
			if score.ExpectedText != tt.expected {
				t.Errorf("Expected text to be echoed, got %q", score.ExpectedText)
			}
		})
	}
}
