package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Class tags an error for retry-policy purposes.
type Class int

const (
	// ClassRecoverable errors are retried with exponential backoff.
	// Unknown errors default here: better to retry than discard work.
	ClassRecoverable Class = iota

	// ClassPermanent errors are never retried.
	ClassPermanent

	// ClassRateLimited errors are retried after a fixed, longer delay.
	ClassRateLimited
)

// ErrRetriesExhausted marks a recoverable error that persisted past the retry
// budget. Callers distinguish it from a PermanentError to decide whether to
// fail the file, the batch, or the run.
var ErrRetriesExhausted = errors.New("retries exhausted")

// PermanentError wraps an error that will never succeed on retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err carries a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

var permanentPatterns = []string{
	"not found", "404", "unauthorized", "401",
	"forbidden", "403", "bad request", "400",
}

var recoverablePatterns = []string{
	"timeout", "connection", "network", "temporary",
	"service unavailable", "503", "502", "504",
}

var rateLimitPatterns = []string{
	"throttled", "rate limit", "too many requests", "429",
	"service unavailable", "503", "quota exceeded",
}

// Classify tags an error by matching its message against known permanent,
// recoverable, and rate-limit patterns. Permanent patterns win; anything
// unmatched is treated as recoverable.
func Classify(err error) Class {
	if err == nil {
		return ClassRecoverable
	}
	msg := strings.ToLower(err.Error())

	for _, p := range permanentPatterns {
		if strings.Contains(msg, p) {
			return ClassPermanent
		}
	}
	for _, p := range rateLimitPatterns {
		if strings.Contains(msg, p) {
			return ClassRateLimited
		}
	}
	for _, p := range recoverablePatterns {
		if strings.Contains(msg, p) {
			return ClassRecoverable
		}
	}
	return ClassRecoverable
}

// Config controls the retry budget and backoff shape.
type Config struct {
	MaxRetries     int           // Attempts beyond the first
	InitialDelay   time.Duration // First backoff delay, doubled per attempt
	MaxDelay       time.Duration // Exponential backoff cap
	RateLimitDelay time.Duration // Fixed delay for rate-limited errors
}

// DefaultConfig mirrors the sync engine's production settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       60 * time.Second,
		RateLimitDelay: 30 * time.Second,
	}
}

// Do executes fn, retrying per the classification policy. Permanent errors
// surface immediately wrapped in *PermanentError; recoverable errors are
// retried with exponential backoff (rate-limited ones with the fixed delay);
// an exhausted budget returns an error wrapping ErrRetriesExhausted.
//
// The backoff wait is a plain suspension point: fn must own any transaction
// it needs, so nothing is held open across the sleep.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		class := Classify(err)
		if class == ClassPermanent {
			return zero, &PermanentError{Err: err}
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.RateLimitDelay
		if class != ClassRateLimited {
			delay = backoffDelay(cfg, attempt)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, cfg.MaxRetries+1, lastErr)
}

// backoffDelay returns the exponential delay for the given attempt, capped at
// the configured maximum.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if delay > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return delay
}
