package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/live-text-overlay-go/internal/config"
	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/frame"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/observer"
	"github.com/anime-shed/live-text-overlay-go/internal/overlay"
	"github.com/anime-shed/live-text-overlay-go/internal/pipeline"
	"github.com/anime-shed/live-text-overlay-go/internal/service"
	"github.com/anime-shed/live-text-overlay-go/internal/session"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
	"github.com/anime-shed/live-text-overlay-go/pkg/validation"
)

// CameraSession is the part of the camera session the API drives
type CameraSession interface {
	Push(img image.Image, rotation models.Rotation) (uint64, pipeline.Outcome)
	SwitchCamera(ctx context.Context) (frame.Lens, error)
	Status() session.Status
}

// PipelineStats reports live pipeline counters
type PipelineStats interface {
	Stats() pipeline.Stats
}

// Services bundles what the handlers call into
type Services struct {
	State       *state.Store
	Session     CameraSession
	Pipeline    PipelineStats
	Capture     service.CaptureService
	Recognition service.RecognitionService
	Metrics     *observer.MetricsObserver
	Style       overlay.Style
}

func NewHandler(svc Services, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/state", getState(svc.State))
	r.GET("/state/stream", streamState(svc.State))
	r.GET("/overlay", getOverlay(svc.State))
	r.GET("/overlay.png", getOverlayPNG(svc.State, svc.Style))
	r.POST("/frames", submitFrame(svc.Session))
	r.POST("/capture", capturePhoto(svc.Capture, cfg))
	r.POST("/recognize", recognizeStill(svc.Recognition, cfg))
	r.POST("/camera/switch", switchCamera(svc.Session, cfg))
	r.GET("/metrics", getMetrics(svc))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func getState(store *state.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Load())
	}
}

func getOverlay(store *state.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := buildOverlay(c, store)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "cannot map overlay", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getOverlayPNG(store *state.Store, style overlay.Style) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := buildOverlay(c, store)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "cannot map overlay", err)
			return
		}

		s := style
		if labels, err := strconv.ParseBool(c.DefaultQuery("labels", "false")); err == nil {
			s.Labels = labels
		}
		canvas := overlay.Render(resp.Boxes, resp.Viewport, s)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
			respondError(c, http.StatusInternalServerError, "cannot encode overlay",
				apperrors.NewInternalError("png encoding failed", err))
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

// buildOverlay maps the latest result into the viewport named by the width and
// height query parameters. Before the first frame there is nothing to map
// against, which is reported as a mapping precondition error.
func buildOverlay(c *gin.Context, store *state.Store) (*models.OverlayResponse, error) {
	width, errW := strconv.ParseFloat(c.Query("width"), 64)
	height, errH := strconv.ParseFloat(c.Query("height"), 64)
	if errW != nil || errH != nil {
		return nil, apperrors.NewValidationError("width and height query parameters are required", errors.Join(errW, errH))
	}
	viewport, err := validation.ValidateViewport(width, height)
	if err != nil {
		return nil, err
	}

	snap := store.Load()
	if snap.Result == nil {
		if snap.FrameGeometry().IsZero() {
			return nil, apperrors.NewMappingPreconditionError("no frame has been analyzed yet", nil)
		}
		return &models.OverlayResponse{
			Viewport: viewport,
			Frame:    snap.FrameGeometry(),
			Boxes:    []models.OverlayBox{},
		}, nil
	}

	boxes, err := overlay.MapFragments(snap.Result, viewport)
	if err != nil {
		return nil, err
	}
	return &models.OverlayResponse{
		Viewport: viewport,
		Frame:    snap.Result.Frame,
		FullText: snap.Result.FullText,
		Boxes:    boxes,
	}, nil
}

func submitFrame(cam CameraSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		rotation, err := validation.ValidateRotation(queryInt(c, "rotation"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid rotation", err)
			return
		}
		img, err := decodeUpload(c)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid frame", err)
			return
		}

		seq, outcome := cam.Push(img, rotation)
		logger.WithFields(logrus.Fields{
			"frame_seq": seq,
			"rotation":  rotation,
			"outcome":   outcome.String(),
		}).Debug("Frame uploaded")

		c.JSON(http.StatusAccepted, models.FrameSubmitResponse{Seq: seq, Outcome: outcome.String()})
	}
}

func capturePhoto(capture service.CaptureService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		loc, err := capture.CapturePhoto(ctx)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "capture failed", err)
			return
		}
		c.JSON(http.StatusCreated, loc)
	}
}

func recognizeStill(recognizer service.RecognitionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		// Log request start
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing still recognition request")

		var (
			resp *models.RecognizeResponse
			err  error
		)
		if isJSON(c.ContentType()) {
			var req models.RecognizeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", err)
				return
			}
			resp, err = recognizer.RecognizeStill(ctx, &req)
		} else {
			rotation, rerr := validation.ValidateRotation(queryInt(c, "rotation"))
			if rerr != nil {
				respondError(c, apperrors.GetStatusCode(rerr), "invalid rotation", rerr)
				return
			}
			img, derr := decodeUpload(c)
			if derr != nil {
				respondError(c, apperrors.GetStatusCode(derr), "invalid image", derr)
				return
			}
			resp, err = recognizer.RecognizeImage(ctx, img, rotation, c.Query("expected_text"), service.UploadSource)
		}
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "recognition failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":             resp.Source,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Still recognition request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func switchCamera(cam CameraSession, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		lens, err := cam.SwitchCamera(ctx)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "camera switch failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lens": lens})
	}
}

func getMetrics(svc Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"events":   svc.Metrics.GetMetrics(),
			"pipeline": svc.Pipeline.Stats(),
			"session":  svc.Session.Status(),
		})
	}
}

// decodeUpload reads an image from a multipart "image" field or from the raw body
func decodeUpload(c *gin.Context) (image.Image, error) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, apperrors.NewValidationError("multipart field \"image\" is required", err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.NewValidationError("cannot read uploaded image", err)
		}
		defer f.Close()
		body = f
	}

	img, err := imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("image larger than %d bytes", maxErr.Limit), err)
		}
		return nil, apperrors.NewValidationError("cannot decode image", err)
	}
	return img, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// queryInt parses an optional integer query parameter; malformed values map to
// -1 so that validation rejects them
func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
