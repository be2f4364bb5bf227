package drawing

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/onshape-drawings/pkg/jobs"
	"github.com/hashicorp-forge/onshape-drawings/pkg/onshape"
)

// API is the subset of *onshape.Client used by drawing operations.
type API interface {
	jobs.Getter
	Post(ctx context.Context, path string, body any, out any, opts ...onshape.CallOption) error
	DownloadFile(ctx context.Context, path, destination string) error
}

// Service runs drawing operations against one stack. Every operation that
// starts a server-side job waits for it with the poller.
type Service struct {
	api    API
	poller *jobs.Poller
	logger hclog.Logger
}

// NewService returns a Service. A nil poller polls with default timing.
func NewService(api API, poller *jobs.Poller, logger hclog.Logger) *Service {
	if poller == nil {
		poller = jobs.NewPoller(api, jobs.Options{Logger: logger})
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		api:    api,
		poller: poller,
		logger: logger.Named("drawing"),
	}
}

// startJob posts body to path and returns the id of the created job.
func (s *Service) startJob(ctx context.Context, path string, body any) (string, error) {
	var job jobs.Job
	if err := s.api.Post(ctx, path, body, &job); err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", fmt.Errorf("no job id in response to %s", path)
	}
	return job.ID, nil
}
