package models

import "time"

// TextFragment is one recognized unit of text. BoundingBox is nil when the
// recognizer could not localize the fragment.
type TextFragment struct {
	Text        string  `json:"text"`
	BoundingBox *Rect   `json:"bounding_box,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// RecognitionResult is the outcome of analyzing a single frame.
// Frame and FrameSeq identify the frame the fragments were recognized in, so a
// renderer always maps fragments with the geometry they belong to.
type RecognitionResult struct {
	FullText    string         `json:"full_text"`
	Fragments   []TextFragment `json:"fragments"`
	Frame       FrameGeometry  `json:"frame"`
	FrameSeq    uint64         `json:"frame_seq"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Localized returns the fragments that carry a bounding box, in recognition order
func (r *RecognitionResult) Localized() []TextFragment {
	if r == nil {
		return nil
	}
	out := make([]TextFragment, 0, len(r.Fragments))
	for _, f := range r.Fragments {
		if f.BoundingBox != nil {
			out = append(out, f)
		}
	}
	return out
}

// AccuracyScore compares recognized text against an expected transcript
type AccuracyScore struct {
	ExpectedText string  `json:"expected_text"`
	WER          float64 `json:"word_error_rate"`
	CER          float64 `json:"character_error_rate"`
	WordAccuracy float64 `json:"word_accuracy"`
	WordEdits    int     `json:"word_edits"`
	CharEdits    int     `json:"char_edits"`
}
