package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeFrameUnavailable    ErrorType = "frame_unavailable"
	ErrorTypeRecognition         ErrorType = "recognition"
	ErrorTypeMappingPrecondition ErrorType = "mapping_precondition"
	ErrorTypeCapture             ErrorType = "capture"
	ErrorTypeStorage             ErrorType = "storage"
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeNetwork             ErrorType = "network"
	ErrorTypeTimeout             ErrorType = "timeout"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeInternal            ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewFrameUnavailableError reports a frame that carried no usable image
func NewFrameUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeFrameUnavailable, http.StatusUnprocessableEntity, message, cause)
}

// NewRecognitionError reports a failed call to the recognition service
func NewRecognitionError(message string, cause error) *AppError {
	return newError(ErrorTypeRecognition, http.StatusBadGateway, message, cause)
}

// NewMappingPreconditionError reports an overlay mapping attempted without a frame size
func NewMappingPreconditionError(message string, cause error) *AppError {
	return newError(ErrorTypeMappingPrecondition, http.StatusConflict, message, cause)
}

// NewCaptureError reports a failed still capture
func NewCaptureError(message string, cause error) *AppError {
	return newError(ErrorTypeCapture, http.StatusServiceUnavailable, message, cause)
}

// NewStorageError reports a failure of the photo store
func NewStorageError(message string, cause error) *AppError {
	return newError(ErrorTypeStorage, http.StatusBadGateway, message, cause)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error, or any error it wraps, is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
