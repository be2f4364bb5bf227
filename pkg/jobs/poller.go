package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/onshape-drawings/pkg/onshape"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultInterval = 1 * time.Second
)

// PollFunc fetches the current status of a job. It is called exactly once per
// tick.
type PollFunc func(ctx context.Context) (*Job, error)

// ParseFunc interprets the terminal payload of a DONE job.
type ParseFunc[T any] func(job *Job) (T, error)

// Clock is the time source of the poller.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Options configures Await.
type Options struct {
	// Kind and ID label errors and log lines.
	Kind Kind
	ID   string

	// Timeout is measured from the start of polling, not from job creation.
	// Default: 60 seconds
	Timeout time.Duration

	// Interval is the sleep before every poll.
	// Default: 1 second
	Interval time.Duration

	Clock  Clock
	Logger hclog.Logger
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
}

// Await polls until the job leaves ACTIVE or the timeout elapses.
//
// Every tick sleeps Interval, gives up with a timed out *JobFailedError once
// more than Timeout has elapsed, and otherwise polls once. The first tick
// always polls. DONE jobs are handed to parse and a parse failure is returned
// as *PayloadParseError. FAILED jobs return *JobFailedError with the failure
// reason. Poll errors are returned unchanged.
func Await[T any](ctx context.Context, poll PollFunc, parse ParseFunc[T], opts Options) (T, error) {
	var zero T
	opts.applyDefaults()

	logger := opts.Logger.With("kind", opts.Kind.String(), "id", opts.ID)
	start := opts.Clock.Now()

	for polls := 0; ; polls++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-opts.Clock.After(opts.Interval):
		}

		elapsed := opts.Clock.Now().Sub(start)
		if polls > 0 && elapsed > opts.Timeout {
			logger.Error("job timed out", "elapsed_seconds", int(elapsed.Seconds()))
			return zero, &JobFailedError{
				Kind:     opts.Kind,
				ID:       opts.ID,
				State:    StateActive,
				TimedOut: true,
				Elapsed:  elapsed,
			}
		}

		logger.Debug("waited for job", "elapsed_seconds", int(elapsed.Seconds()))

		job, err := poll(ctx)
		if err != nil {
			return zero, err
		}
		if job == nil {
			return zero, &PayloadParseError{
				Kind: opts.Kind,
				ID:   opts.ID,
				Err:  errors.New("empty job status"),
			}
		}

		switch job.RequestState {
		case StateActive:
			continue

		case StateDone:
			logger.Info("job finished", "state", job.RequestState, "polls", polls+1)
			result, err := parse(job)
			if err != nil {
				var perr *PayloadParseError
				if errors.As(err, &perr) {
					return zero, err
				}
				return zero, &PayloadParseError{
					Kind:   opts.Kind,
					ID:     opts.ID,
					Output: job.Output,
					Err:    err,
				}
			}
			return result, nil

		case StateFailed:
			logger.Error("job failed", "reason", job.FailureReason)
			return zero, &JobFailedError{
				Kind:    opts.Kind,
				ID:      opts.ID,
				State:   job.RequestState,
				Reason:  job.FailureReason,
				Elapsed: elapsed,
			}

		default:
			logger.Error("job finished in unexpected state", "state", job.RequestState)
			return zero, &JobFailedError{
				Kind:    opts.Kind,
				ID:      opts.ID,
				State:   job.RequestState,
				Reason:  fmt.Sprintf("unexpected request state %q", job.RequestState),
				Elapsed: elapsed,
			}
		}
	}
}

// Getter is the subset of *onshape.Client used to poll job status.
type Getter interface {
	Get(ctx context.Context, path string, out any, opts ...onshape.CallOption) error
}

// Poller awaits jobs through the API.
type Poller struct {
	getter Getter
	opts   Options
}

// NewPoller returns a Poller using opts for every job. Kind and ID in opts
// are ignored.
func NewPoller(getter Getter, opts Options) *Poller {
	opts.applyDefaults()
	return &Poller{getter: getter, opts: opts}
}

// StatusFunc returns a PollFunc that fetches the status of job id of kind.
func (p *Poller) StatusFunc(kind Kind, id string) PollFunc {
	path := kind.StatusPath(id)
	return func(ctx context.Context) (*Job, error) {
		var job Job
		if err := p.getter.Get(ctx, path, &job); err != nil {
			return nil, err
		}
		return &job, nil
	}
}

func (p *Poller) options(kind Kind, id string) Options {
	opts := p.opts
	opts.Kind = kind
	opts.ID = id
	return opts
}

// AwaitModify waits for the drawing modify job id and returns its parsed
// output.
func (p *Poller) AwaitModify(ctx context.Context, id string) (*ModifyStatusOutput, error) {
	return Await(ctx, p.StatusFunc(KindModify, id), ParseModifyOutput, p.options(KindModify, id))
}

// AwaitTranslation waits for the translation job id and returns the location
// of the exported data.
func (p *Poller) AwaitTranslation(ctx context.Context, id string) (*TranslationResult, error) {
	return Await(ctx, p.StatusFunc(KindTranslation, id), ParseTranslationResult, p.options(KindTranslation, id))
}
