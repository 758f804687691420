package bitable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep returns a Sleep func that records waits instead of blocking.
func recordingSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
}

func TestRetrier_BackoffSequence(t *testing.T) {
	var waits []time.Duration
	r := NewRetrier()
	r.Sleep = recordingSleep(&waits)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return &HTTPError{StatusCode: 429}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits)
}

func TestRetrier_Exhausted(t *testing.T) {
	var waits []time.Duration
	var states []RetryState
	r := NewRetrier()
	r.Sleep = recordingSleep(&waits)
	r.OnEvent = func(ev RetryEvent) { states = append(states, ev.State) }

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &HTTPError{StatusCode: 503}
	})

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, 5, calls)
	// No wait after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, waits)
	assert.Equal(t, StateExhausted, states[len(states)-1])
}

func TestRetrier_CapsInterval(t *testing.T) {
	var waits []time.Duration
	r := NewRetrier()
	r.MaxAttempts = 9
	r.Sleep = recordingSleep(&waits)

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return &HTTPError{StatusCode: 429}
	})

	require.Len(t, waits, 8)
	assert.Equal(t, 60*time.Second, waits[6])
	assert.Equal(t, 60*time.Second, waits[7])
}

func TestRetrier_NonRetryableFailsImmediately(t *testing.T) {
	var waits []time.Duration
	r := NewRetrier()
	r.Sleep = recordingSleep(&waits)

	apiErr := &APIError{Code: 1254045, Message: "FieldNameNotFound"}
	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return apiErr
	})

	assert.Same(t, apiErr, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestRetrier_CustomPredicate(t *testing.T) {
	sentinel := errors.New("flaky")
	r := NewRetrier()
	r.MaxAttempts = 2
	r.Sleep = func(context.Context, time.Duration) error { return nil }
	r.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	})

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, calls)
}

func TestRetrier_StopsOnCancelledSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier()
	r.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return &HTTPError{StatusCode: 500}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &HTTPError{StatusCode: 429}, true},
		{"server error", &HTTPError{StatusCode: 502}, true},
		{"bad request", &HTTPError{StatusCode: 400}, false},
		{"transient code", &APIError{Code: 9, transient: true}, true},
		{"permanent code", &APIError{Code: 1254045}, false},
		{"transport", &transportError{err: errors.New("connection reset")}, true},
		{"not found", &EndpointNotFoundError{}, false},
		{"auth", &AuthError{Err: &transportError{err: errors.New("dial")}}, false},
		{"wrapped", &RetryExhaustedError{Last: &HTTPError{StatusCode: 429}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
