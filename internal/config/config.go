package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	AllowedImageHosts  []string

	// Recognition
	OCREngine     string
	OCRLanguage   string
	OCRLevel      string
	OCRPreprocess bool
	MinSharpness  float64

	// Frame source
	FrameSource   string
	ReplayDir     string
	FrameInterval time.Duration
	FrameRotation int
	CameraDevice  int
	CameraLens    string

	// Capture storage
	StorageBackend string
	CaptureDir     string
	AppFolder      string
	AzureAccount   string
	AzureKey       string
	AzureContainer string

	OverlayColor string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 5*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		AllowedImageHosts:  parseListOrDefault("ALLOWED_IMAGE_HOSTS", nil),

		OCREngine:     strings.ToLower(getEnvOrDefault("OCR_ENGINE", "tesseract")),
		OCRLanguage:   getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRLevel:      strings.ToLower(getEnvOrDefault("OCR_LEVEL", "word")),
		OCRPreprocess: parseBoolOrDefault("OCR_PREPROCESS", true),
		MinSharpness:  parseFloatOrDefault("MIN_SHARPNESS", 0),

		FrameSource:   strings.ToLower(getEnvOrDefault("FRAME_SOURCE", "replay")),
		ReplayDir:     getEnvOrDefault("REPLAY_DIR", "./frames"),
		FrameInterval: parseDurationOrDefault("FRAME_INTERVAL", 33*time.Millisecond),
		FrameRotation: int(parseIntOrDefault("FRAME_ROTATION", 0)),
		CameraDevice:  int(parseIntOrDefault("CAMERA_DEVICE", 0)),
		CameraLens:    strings.ToLower(getEnvOrDefault("CAMERA_LENS", "back")),

		StorageBackend: strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "local")),
		CaptureDir:     getEnvOrDefault("CAPTURE_DIR", "./Pictures"),
		AppFolder:      getEnvOrDefault("APP_FOLDER", "CuriosityBox"),
		AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer: getEnvOrDefault("AZURE_CONTAINER", "captures"),

		OverlayColor: getEnvOrDefault("OVERLAY_COLOR", "#ff0000"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations of a loaded configuration
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be > 0 (got %s)", c.FrameInterval)
	}
	switch c.FrameRotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("FRAME_ROTATION must be one of 0, 90, 180, 270 (got %d)", c.FrameRotation)
	}
	if c.MinSharpness < 0 {
		return fmt.Errorf("MIN_SHARPNESS must be >= 0 (got %v)", c.MinSharpness)
	}
	if !oneOf(c.OCREngine, "tesseract", "static") {
		return fmt.Errorf("invalid OCR_ENGINE: %q", c.OCREngine)
	}
	if !oneOf(c.OCRLevel, "word", "line", "block") {
		return fmt.Errorf("invalid OCR_LEVEL: %q", c.OCRLevel)
	}
	if !oneOf(c.FrameSource, "replay", "camera", "none") {
		return fmt.Errorf("invalid FRAME_SOURCE: %q", c.FrameSource)
	}
	if !oneOf(c.CameraLens, "back", "front") {
		return fmt.Errorf("invalid CAMERA_LENS: %q", c.CameraLens)
	}
	switch c.StorageBackend {
	case "local":
	case "azure":
		if c.AzureAccount == "" || c.AzureKey == "" {
			return fmt.Errorf("STORAGE_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %q", c.StorageBackend)
	}
	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
