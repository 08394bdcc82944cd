package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RecognizeRequest asks for one-shot recognition of a still image, fetched by URL
// or loaded from the capture store by name. Exactly one source must be set.
type RecognizeRequest struct {
	URL          string `json:"url,omitempty" binding:"omitempty,url"`
	Capture      string `json:"capture,omitempty"`
	Rotation     int    `json:"rotation_degrees,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// RecognizeResponse is the result of a one-shot recognition
type RecognizeResponse struct {
	Source            string             `json:"source"`
	Timestamp         string             `json:"timestamp"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
	Result            *RecognitionResult `json:"result"`
	Quality           *FrameQuality      `json:"quality,omitempty"`
	QualityIssues     []QualityIssue     `json:"quality_issues,omitempty"`
	OCRReady          bool               `json:"ocr_ready"`
	Accuracy          *AccuracyScore     `json:"accuracy,omitempty"`
}

// QualityIssue describes one threshold a still image failed
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// OverlayBox is a fragment mapped into viewport space
type OverlayBox struct {
	Text string `json:"text"`
	Rect Rect   `json:"rect"`
}

// OverlayResponse carries every mapped box for one viewport
type OverlayResponse struct {
	Viewport DisplayMetrics `json:"viewport"`
	Frame    FrameGeometry  `json:"frame"`
	FullText string         `json:"full_text"`
	Boxes    []OverlayBox   `json:"boxes"`
}

// FrameSubmitResponse reports whether an uploaded frame entered analysis
type FrameSubmitResponse struct {
	Seq     uint64 `json:"seq"`
	Outcome string `json:"outcome"`
}

// FrameQuality holds sharpness and exposure metrics of a frame
type FrameQuality struct {
	LaplacianVar float64  `json:"laplacian_variance"`
	Brightness   float64  `json:"brightness"`
	SkewAngle    *float64 `json:"skew_angle,omitempty"`
	Blurry       bool     `json:"blurry"`
	TooDark      bool     `json:"too_dark"`
	TooBright    bool     `json:"too_bright"`
}
