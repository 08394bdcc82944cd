package recognition

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// Score compares recognized text with an expected transcript. Both texts are
// normalized to lower case with collapsed whitespace before comparison.
func Score(expected, recognized string) models.AccuracyScore {
	ref := normalize(expected)
	hyp := normalize(recognized)

	score := models.AccuracyScore{ExpectedText: expected}

	refWords := strings.Fields(ref)
	hypWords := strings.Fields(hyp)
	switch {
	case len(refWords) == 0 && len(hypWords) == 0:
		score.WordAccuracy = 1
	case len(refWords) == 0:
		score.WER = 1
		score.WordEdits = len(hypWords)
	default:
		score.WER, score.WordAccuracy = wer.WER(refWords, hypWords)
		score.WordEdits = int(math.Round(score.WER * float64(len(refWords))))
	}

	score.CharEdits = levenshtein.Distance(ref, hyp)
	refLen := utf8.RuneCountInString(ref)
	switch {
	case refLen > 0:
		score.CER = float64(score.CharEdits) / float64(refLen)
	case score.CharEdits > 0:
		score.CER = 1
	}

	return score
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
