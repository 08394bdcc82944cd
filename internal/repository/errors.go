package repository

import "errors"

var (
	// ErrCaptureStoreUnavailable indicates no photo store is configured
	ErrCaptureStoreUnavailable = errors.New("capture store unavailable")

	// ErrFetcherUnavailable indicates no image fetcher is configured
	ErrFetcherUnavailable = errors.New("image fetcher unavailable")
)
