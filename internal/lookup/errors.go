package lookup

import (
	"errors"
	"fmt"
)

// Common errors returned by lookup clients.
var (
	// ErrRateLimited indicates the source's rate limit has been exceeded.
	ErrRateLimited = errors.New("lookup rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error during lookup")

	// ErrInvalidResponse indicates an unexpected response payload.
	ErrInvalidResponse = errors.New("invalid lookup response")
)

// APIError represents an HTTP-level error from a lookup source.
type APIError struct {
	Source     string // "dblp" or "s2"
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}

// checkStatus maps an HTTP status to an error, or nil for success.
func checkStatus(source string, status int) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w: %s status %d", ErrRateLimited, source, status)
	case status >= 400:
		return &APIError{
			Source:     source,
			StatusCode: status,
			Message:    fmt.Sprintf("HTTP %d", status),
		}
	}
	return nil
}
