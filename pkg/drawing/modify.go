package drawing

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
)

// ErrNotWorkspace is returned when a version is targeted by an operation
// that changes the drawing.
var ErrNotWorkspace = errors.New("drawing must be addressed by a workspace to be modified")

// ModifySummary is the outcome of a modify job.
type ModifySummary struct {
	JobID      string
	Status     string
	StatusCode int

	// Requested is the number of annotations sent.
	Requested int
	Succeeded int
	Failed    int

	Results []jobs.SingleRequestResult
}

// Mismatch returns true if the job reported a different number of results
// than annotations were sent.
func (s *ModifySummary) Mismatch() bool {
	return s.Requested >= 0 && s.Succeeded+s.Failed != s.Requested
}

// LogicalIDs returns the logical ids of created or edited annotations.
func (s *ModifySummary) LogicalIDs() []string {
	var ids []string
	for _, r := range s.Results {
		if r.Succeeded() && r.LogicalID != "" {
			ids = append(ids, r.LogicalID)
		}
	}
	return ids
}

func modifyPath(t Target) string {
	return t.elementPath("api/v6/drawings") + "/modify"
}

// Modify sends a modify request and waits for the job. requested is the
// number of annotations in body, or -1 when unknown.
func (s *Service) Modify(ctx context.Context, t Target, body any, requested int) (*ModifySummary, error) {
	if !t.IsWorkspace() {
		return nil, ErrNotWorkspace
	}

	id, err := s.startJob(ctx, modifyPath(t), body)
	if err != nil {
		return nil, fmt.Errorf("error starting modify: %w", err)
	}
	s.logger.Info("initiated modify of drawing", "id", id, "target", t.String())

	out, err := s.poller.AwaitModify(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &ModifySummary{
		JobID:      id,
		Status:     out.Status,
		StatusCode: out.StatusCode,
		Requested:  requested,
		Succeeded:  len(out.Succeeded()),
		Failed:     len(out.Failed()),
		Results:    out.Results,
	}

	s.logger.Info("modify finished",
		"id", id,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"requested", requested)
	if summary.Mismatch() {
		s.logger.Warn("modify result count does not match request",
			"results", len(out.Results), "requested", requested)
	}

	return summary, nil
}

// ModifyAnnotations sends req and waits for the job.
func (s *Service) ModifyAnnotations(ctx context.Context, t Target, req ModifyRequest) (*ModifySummary, error) {
	return s.Modify(ctx, t, req, req.Count())
}
