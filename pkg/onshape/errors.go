package onshape

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusUnknown is the status code carried by an APIError when no HTTP
// response was received (connection refused, timeout, malformed response).
const StatusUnknown = -1

// ConfigurationError reports a problem with the local credential store or
// client configuration. It is always raised before any network activity and
// is never retried.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// APIError is a failed API call. StatusCode is the HTTP status of the
// response, or StatusUnknown for transport-level failures.
type APIError struct {
	StatusCode int
	Message    string
	Body       string

	// ServerDate is the Date header of the failing response, if any. It is
	// used to report clock skew when a signature is rejected.
	ServerDate time.Time

	// Err is the underlying transport error for StatusUnknown failures.
	Err error
}

func (e *APIError) Error() string {
	if e.StatusCode == StatusUnknown {
		return fmt.Sprintf("onshape api error (UNKNOWN_STATUS_CODE): %s", e.Message)
	}
	return fmt.Sprintf("onshape api error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited returns true if the server asked the client to slow down.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsTransport returns true if no HTTP response was received.
func (e *APIError) IsTransport() bool {
	return e.StatusCode == StatusUnknown
}

// ClockSkew returns how far the local clock is ahead of the server clock
// when the response carried a Date header. A large skew is the usual cause of
// 401 responses for otherwise valid keys.
func (e *APIError) ClockSkew(local time.Time) (time.Duration, bool) {
	if e.ServerDate.IsZero() {
		return 0, false
	}
	return local.Sub(e.ServerDate), true
}

// StatusCode extracts the HTTP status from err, or StatusUnknown when err is
// not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return StatusUnknown
}
