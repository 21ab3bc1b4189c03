package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	transient := errors.New("connection reset")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", errs: []error{nil}, wantCalls: 1},
		{name: "recovers", errs: []error{transient, transient, nil}, wantCalls: 3},
		{name: "exhausted", errs: []error{transient, transient, transient}, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "non-retryable",
			errs:      []error{&RetryableError{Err: transient, Retryable: false}},
			wantCalls: 1,
			wantErr:   transient,
		},
		{
			name:      "explicitly retryable",
			errs:      []error{&RetryableError{Err: transient, Retryable: true}, nil},
			wantCalls: 2,
		},
		{name: "validation", errs: []error{Validationf("bad input")}, wantCalls: 1, wantErr: ErrValidation},
		{name: "rate limited", errs: []error{ErrRateLimit, nil}, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				err := tt.errs[calls]
				calls++
				return err
			}, fastRetry(3))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ExhaustedKeepsCause(t *testing.T) {
	cause := errors.New("upstream 503")
	err := WithRetry(context.Background(), func() error { return cause }, fastRetry(2))
	require.ErrorIs(t, err, ErrMaxRetries)
	require.ErrorIs(t, err, cause)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return errors.New("timeout")
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryOptions_Backoff(t *testing.T) {
	opts := RetryOptions{InitialDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, opts.Backoff(1))
	assert.Equal(t, 2*time.Second, opts.Backoff(2))
	assert.Equal(t, 4*time.Second, opts.Backoff(3))
	assert.Equal(t, 5*time.Second, opts.Backoff(4))
	assert.Equal(t, 100*time.Millisecond, RetryOptions{}.Backoff(1))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(Validationf("bad")))
	assert.False(t, IsRetryable(NotFoundf("gone")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
