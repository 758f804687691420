package bitable

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry defaults.
const (
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 60 * time.Second
	DefaultMultiplier      = 2.0
)

// RetryState is a state of the retry state machine.
type RetryState string

const (
	StateAttempting RetryState = "attempting"
	StateWaiting    RetryState = "waiting"
	StateSucceeded  RetryState = "succeeded"
	StateFailed     RetryState = "failed"
	StateExhausted  RetryState = "exhausted"
)

// RetryEvent is emitted on every state transition.
type RetryEvent struct {
	State   RetryState
	Attempt int
	Wait    time.Duration
	Err     error
}

// Retrier runs an operation through
// Attempting -> Waiting -> Attempting ... -> Succeeded | Failed | Exhausted.
// Only errors accepted by Retryable move the machine to Waiting.
type Retrier struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// Retryable decides whether a failed attempt is retried. Defaults to IsRetryable.
	Retryable func(error) bool
	// Sleep blocks for d or until ctx is done. Defaults to a timer-based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnEvent observes transitions; may be nil.
	OnEvent func(RetryEvent)
}

// NewRetrier returns a Retrier with the default policy: 5 attempts,
// 1s initial wait doubling up to 60s.
func NewRetrier() *Retrier {
	return &Retrier{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
	}
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryable := r.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	intervals := r.intervals()

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r.emit(RetryEvent{State: StateAttempting, Attempt: attempt})

		err := op(ctx)
		if err == nil {
			r.emit(RetryEvent{State: StateSucceeded, Attempt: attempt})
			return nil
		}
		last = err

		if !retryable(err) || ctx.Err() != nil {
			r.emit(RetryEvent{State: StateFailed, Attempt: attempt, Err: err})
			return err
		}
		if attempt == maxAttempts {
			break
		}

		wait := intervals.NextBackOff()
		r.emit(RetryEvent{State: StateWaiting, Attempt: attempt, Wait: wait, Err: err})
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	r.emit(RetryEvent{State: StateExhausted, Attempt: maxAttempts, Err: last})
	return &RetryExhaustedError{Attempts: maxAttempts, Last: last}
}

// intervals builds a jitter-free exponential schedule.
func (r *Retrier) intervals() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultInitialInterval
	}
	b.MaxInterval = r.MaxInterval
	if b.MaxInterval <= 0 {
		b.MaxInterval = DefaultMaxInterval
	}
	b.Multiplier = r.Multiplier
	if b.Multiplier <= 1 {
		b.Multiplier = DefaultMultiplier
	}
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

func (r *Retrier) emit(ev RetryEvent) {
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
