package jobs

import (
	"fmt"
	"time"
)

// JobFailedError is returned when a job reached FAILED, or when polling gave
// up after the timeout. A timed out job is not cancelled and may still
// complete on the server.
type JobFailedError struct {
	Kind     Kind
	ID       string
	State    RequestState
	Reason   string
	TimedOut bool
	Elapsed  time.Duration
}

func (e *JobFailedError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s job %s timed out after %s", e.Kind, e.ID, e.Elapsed.Round(time.Second))
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s job %s finished as %s", e.Kind, e.ID, e.State)
	}
	return fmt.Sprintf("%s job %s finished as %s: %s", e.Kind, e.ID, e.State, e.Reason)
}

// PayloadParseError is returned when a job finished as DONE but its result
// could not be interpreted.
type PayloadParseError struct {
	Kind   Kind
	ID     string
	Output string
	Err    error
}

func (e *PayloadParseError) Error() string {
	return fmt.Sprintf("error parsing %s job %s result: %v", e.Kind, e.ID, e.Err)
}

func (e *PayloadParseError) Unwrap() error {
	return e.Err
}
