package jobs

import (
	"fmt"
)

// RequestState is the server-side state of an asynchronous job.
type RequestState string

const (
	StateActive RequestState = "ACTIVE"
	StateDone   RequestState = "DONE"
	StateFailed RequestState = "FAILED"
)

// Job is the status document returned by a job status endpoint. Modify jobs
// carry Output; translation jobs carry DocumentID and ResultExternalDataIDs.
type Job struct {
	ID            string       `json:"id"`
	Name          string       `json:"name,omitempty"`
	Href          string       `json:"href,omitempty"`
	RequestState  RequestState `json:"requestState"`
	FailureReason string       `json:"failureReason,omitempty"`

	// Modify jobs.
	Output           string `json:"output,omitempty"`
	DrawingElementID string `json:"drawingElementId,omitempty"`

	// Translation jobs.
	DocumentID            string   `json:"documentId,omitempty"`
	RequestElementID      string   `json:"requestElementId,omitempty"`
	ResultExternalDataIDs []string `json:"resultExternalDataIds,omitempty"`
	ResultElementIDs      []string `json:"resultElementIds,omitempty"`
}

// Kind selects the status endpoint and the terminal payload of a job.
type Kind int

const (
	// KindModify is a drawing modify job. Its terminal payload is the
	// per-request result list in Job.Output.
	KindModify Kind = iota

	// KindTranslation is an export job. Its terminal payload is a pointer to
	// the exported data.
	KindTranslation
)

func (k Kind) String() string {
	switch k {
	case KindModify:
		return "modify"
	case KindTranslation:
		return "translation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// StatusPath returns the API path that reports the status of job id.
func (k Kind) StatusPath(id string) string {
	switch k {
	case KindModify:
		return "api/drawings/modify/status/" + id
	case KindTranslation:
		return "api/translations/" + id
	default:
		panic(fmt.Sprintf("jobs: unknown kind %d", int(k)))
	}
}
