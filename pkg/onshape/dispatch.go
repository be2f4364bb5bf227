package onshape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	// MaxAttempts bounds the number of network attempts of one logical call.
	MaxAttempts = 5

	// InitialRateLimitSleep is the first sleep after a 429 response.
	InitialRateLimitSleep = 5000 * time.Millisecond

	// RateLimitMultiplier grows the sleep after every 429 response.
	RateLimitMultiplier = 1.5
)

// RetryState is the rate-limit backoff state of a client. It accumulates over
// the lifetime of the client and is never reset between logical calls, so
// sustained server pressure keeps the client slow.
type RetryState struct {
	// Sleep is the duration the next 429 response will wait.
	Sleep time.Duration

	// ErrorCount is the number of 429 responses observed so far.
	ErrorCount int

	// Attempts is the total number of attempts made by the client.
	Attempts int
}

// rateLimitBackOff implements backoff.BackOff over a shared RetryState.
type rateLimitBackOff struct {
	mu    sync.Mutex
	state RetryState
}

func newRateLimitBackOff(initial time.Duration) *rateLimitBackOff {
	return &rateLimitBackOff{
		state: RetryState{Sleep: initial},
	}
}

// NextBackOff returns the current sleep and advances it for the next 429.
func (b *rateLimitBackOff) NextBackOff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.Sleep
	b.state.Sleep = growSleep(next)
	b.state.ErrorCount++
	return next
}

// Reset is a no-op. backoff.Retry resets its BackOff at the start of every
// call, but the sleep must persist across calls.
func (b *rateLimitBackOff) Reset() {}

func (b *rateLimitBackOff) recordAttempt() {
	b.mu.Lock()
	b.state.Attempts++
	b.mu.Unlock()
}

func (b *rateLimitBackOff) snapshot() RetryState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// growSleep multiplies d by RateLimitMultiplier, floored to whole
// milliseconds.
func growSleep(d time.Duration) time.Duration {
	ms := float64(d.Milliseconds()) * RateLimitMultiplier
	return time.Duration(int64(ms)) * time.Millisecond
}

// dispatcher runs a single-attempt function up to MaxAttempts times,
// retrying only on 429 responses.
type dispatcher struct {
	backOff *rateLimitBackOff
	logger  hclog.Logger

	// timer is nil in production; tests inject a fake.
	timer backoff.Timer
}

// execute runs attempt until it succeeds, returns a non-429 error, or
// MaxAttempts attempts have been made. The returned error is the one produced
// by the last attempt, unchanged.
func (d *dispatcher) execute(ctx context.Context, attempt func(ctx context.Context) error) error {
	op := func() error {
		d.backOff.recordAttempt()

		err := attempt(ctx)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		state := d.backOff.snapshot()
		d.logger.Error("handling rate limit response",
			"status", StatusCode(err),
			"count", state.ErrorCount,
			"sleep_ms", next.Milliseconds(),
		)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(d.backOff, MaxAttempts-1), ctx)

	return backoff.RetryNotifyWithTimer(op, b, notify, d.timer)
}
