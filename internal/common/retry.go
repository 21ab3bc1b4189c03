package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit indicates that a provider rate limit was hit.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions configures WithRetry. Zero fields take the defaults below.
type RetryOptions struct {
	Logger       *slog.Logger
	MaxAttempts  int           // default 3
	InitialDelay time.Duration // default 100ms
	MaxDelay     time.Duration // default 30s
	Multiplier   float64       // default 2
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Backoff returns the delay before retry number attempt (1-based).
func (o RetryOptions) Backoff(attempt int) time.Duration {
	o = o.withDefaults()
	delay := float64(o.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= o.Multiplier
		if delay >= float64(o.MaxDelay) {
			return o.MaxDelay
		}
	}
	return time.Duration(delay)
}

// RetryableError wraps an error with an explicit retry decision.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs operation until it succeeds, returns a permanent error, or
// runs out of attempts. A RetryableError with Retryable false and ErrValidation
// are permanent. A rate-limit error waits MaxDelay before the next attempt.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		delay := opts.Backoff(attempt)
		if errors.Is(err, ErrRateLimit) {
			delay = opts.MaxDelay
		}

		opts.Logger.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func isPermanent(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return !retryableErr.Retryable
	}
	return errors.Is(err, ErrValidation)
}
