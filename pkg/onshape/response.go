package onshape

import (
	"net/http"
	"strings"

	"github.com/araddon/dateparse"
)

const (
	unknownErrorMessage = "Unknown Onshape API Error"
	noBody              = "NO_BODY"
)

// Classify inspects the outcome of one HTTP attempt and returns nil when it
// succeeded. A status of 300 or more, a status in (0, 100) or a transport
// error are all failures.
func Classify(resp *http.Response, body []byte, transportErr error) *APIError {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	if transportErr == nil && status >= 100 && status < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: status,
		Err:        transportErr,
		Body:       noBody,
	}
	if status <= 0 {
		apiErr.StatusCode = StatusUnknown
	}
	if len(body) > 0 {
		apiErr.Body = string(body)
	}

	switch {
	case resp != nil && statusText(resp) != "":
		apiErr.Message = statusText(resp)
	case transportErr != nil:
		apiErr.Message = transportErr.Error()
	default:
		apiErr.Message = unknownErrorMessage
	}

	if resp != nil {
		if d := resp.Header.Get("Date"); d != "" {
			if t, err := dateparse.ParseAny(d); err == nil {
				apiErr.ServerDate = t
			}
		}
	}

	return apiErr
}

// statusText returns the reason phrase of the status line ("Too Many
// Requests"), falling back to the canonical text for the code.
func statusText(resp *http.Response) string {
	if resp.Status != "" {
		if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
			return reason
		}
	}
	return http.StatusText(resp.StatusCode)
}
