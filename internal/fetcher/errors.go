package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNotFound indicates the remote object does not exist (HTTP 404).
	// Never retried: absence of a checksum implies absence of the dataset.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the request exceeded the configured timeout
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeRateLimit indicates the request was rejected with HTTP 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 404 and 429)
	ErrorTypeClient ErrorType = "client"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err classifies as a remote 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrorTypeNotFound
}

// NewNotFoundError creates a not-found error for the given URL
func NewNotFoundError(url string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeNotFound,
		Retryable:  false,
		StatusCode: 404,
		Message:    fmt.Sprintf("remote object %s does not exist", url),
	}
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// ClassifyHTTPError classifies a terminal HTTP status code into a FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == 404:
		return &FetchError{
			Type:       ErrorTypeNotFound,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    "remote object does not exist",
		}
	case statusCode == 429:
		return &FetchError{
			Type:       ErrorTypeRateLimit,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "rate limit exceeded",
		}
	case statusCode >= 500:
		return &FetchError{
			Type:       ErrorTypeServer,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "server returned an error",
		}
	default:
		return &FetchError{
			Type:       ErrorTypeClient,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("client error: HTTP %d", statusCode),
		}
	}
}

// ClassifyTransportError classifies a transport-level error (no response received)
func ClassifyTransportError(err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}
