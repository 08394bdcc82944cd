package analyzer

// QualityOptions holds the thresholds used to flag a frame
type QualityOptions struct {
	// BlurThreshold is the Laplacian variance at or below which a frame is blurry
	BlurThreshold float64
	// DarkThreshold and BrightThreshold bound the mean gray level (0-255)
	DarkThreshold   float64
	BrightThreshold float64
	// SkipSkew disables the edge-based skew estimate, the most expensive metric
	SkipSkew bool
}

// DefaultOptions returns thresholds suited to general camera frames
func DefaultOptions() QualityOptions {
	return QualityOptions{
		BlurThreshold:   100.0,
		DarkThreshold:   80.0,
		BrightThreshold: 220.0,
	}
}

// OCROptions returns stricter thresholds for stills submitted for recognition
func OCROptions() QualityOptions {
	opts := DefaultOptions()
	opts.BlurThreshold = 300.0
	return opts
}

// LiveOptions returns thresholds for per-frame checks on the analysis worker
func LiveOptions() QualityOptions {
	opts := DefaultOptions()
	opts.SkipSkew = true
	return opts
}

// WithBlurThreshold returns options with a custom blur threshold
func (opts QualityOptions) WithBlurThreshold(threshold float64) QualityOptions {
	opts.BlurThreshold = threshold
	return opts
}
