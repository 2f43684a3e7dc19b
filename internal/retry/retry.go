// Package retry provides retry utilities with exponential backoff and jitter
// for transient failures. The same policy object parameterizes both the
// fetcher and the persistence retry paths.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when max retry attempts are exceeded.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier (default 2.0).
	Multiplier float64
	// Jitter randomizes each delay by up to +/- Jitter fraction of its
	// value (default 0.2). Zero jitter is forced to the default; use a
	// negative value to disable.
	Jitter float64
	// IsRetryable determines if an error should be retried.
	IsRetryable func(error) bool
	// Sleep overrides the wait between attempts; tests use this to avoid
	// real sleeps. Defaults to a context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
		IsRetryable:  func(error) bool { return true },
	}
}

// Do executes fn with retry logic, exponential backoff and jitter.
func Do(ctx context.Context, config Config, fn func() error) error {
	config = withDefaults(config)

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}

		if attempt < config.MaxAttempts {
			if sleepErr := config.Sleep(ctx, config.delayFor(attempt)); sleepErr != nil {
				return fmt.Errorf("%w: %v", ErrContextCancelled, sleepErr)
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}

// delayFor computes the backoff delay for the given attempt (1-based),
// applying the multiplier, cap, and jitter.
func (c Config) delayFor(attempt int) time.Duration {
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	if c.Jitter > 0 {
		// Spread in [1-jitter, 1+jitter).
		spread := 1 + c.Jitter*(2*rand.Float64()-1)
		delay = time.Duration(float64(delay) * spread)
	}

	return delay
}

func withDefaults(config Config) Config {
	def := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = def.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = def.Multiplier
	}
	if config.Jitter == 0 {
		config.Jitter = def.Jitter
	}
	if config.IsRetryable == nil {
		config.IsRetryable = def.IsRetryable
	}
	if config.Sleep == nil {
		config.Sleep = sleepCtx
	}
	return config
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
