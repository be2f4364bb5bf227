package jobs

import (
	"encoding/json"
	"fmt"
)

// Status of a single request in a modify job.
const (
	RequestSuccess = "RequestSuccess"
	RequestFailed  = "RequestFailed"
)

// ModifyStatusOutput is the parsed output of a DONE modify job.
type ModifyStatusOutput struct {
	Status     string                `json:"status,omitempty"`
	StatusCode int                   `json:"statusCode,omitempty"`
	Results    []SingleRequestResult `json:"results"`
}

// SingleRequestResult is the outcome of one entry of a modify request.
// LogicalID is set on success, ErrorDescription on failure.
type SingleRequestResult struct {
	Status           string `json:"status"`
	LogicalID        string `json:"logicalId,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

// Succeeded returns true if the request was applied.
func (r SingleRequestResult) Succeeded() bool {
	return r.Status == RequestSuccess
}

// Succeeded returns the results that were applied.
func (o *ModifyStatusOutput) Succeeded() []SingleRequestResult {
	var out []SingleRequestResult
	for _, r := range o.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the results that were not applied.
func (o *ModifyStatusOutput) Failed() []SingleRequestResult {
	var out []SingleRequestResult
	for _, r := range o.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// ParseModifyOutput parses the output string of a DONE modify job. A job
// without output yields an empty result list.
func ParseModifyOutput(job *Job) (*ModifyStatusOutput, error) {
	out := &ModifyStatusOutput{}
	if job.Output == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(job.Output), out); err != nil {
		return nil, &PayloadParseError{
			Kind:   KindModify,
			ID:     job.ID,
			Output: job.Output,
			Err:    fmt.Errorf("output is not a modify status document: %w", err),
		}
	}
	return out, nil
}
