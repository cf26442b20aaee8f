package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig keeps backoff waits negligible in tests.
func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       4 * time.Millisecond,
		RateLimitDelay: 2 * time.Millisecond,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"not found", errors.New("item not found"), ClassPermanent},
		{"http 404", errors.New("api error 404: no such item"), ClassPermanent},
		{"unauthorized", errors.New("401 unauthorized"), ClassPermanent},
		{"forbidden", errors.New("403 Forbidden"), ClassPermanent},
		{"bad request", errors.New("bad request: missing field"), ClassPermanent},
		{"timeout", errors.New("context deadline exceeded: timeout"), ClassRecoverable},
		{"connection", errors.New("connection reset by peer"), ClassRecoverable},
		{"gateway", errors.New("502 upstream failure"), ClassRecoverable},
		{"throttled", errors.New("request throttled by server"), ClassRateLimited},
		{"http 429", errors.New("api error 429: too many requests"), ClassRateLimited},
		{"quota", errors.New("quota exceeded for tenant"), ClassRateLimited},
		{"unknown defaults recoverable", errors.New("something odd happened"), ClassRecoverable},
		{"nil", nil, ClassRecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDo_PermanentNeverRetries(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, errors.New("api error 404: item gone")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsPermanent(err))
	assert.False(t, errors.Is(err, ErrRetriesExhausted))
}

func TestDo_RecoverableRetriesToBudget(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func() (int, error) {
		attempts++
		return 0, errors.New("timeout talking to remote")
	})

	require.Error(t, err)
	// Initial attempt plus MaxRetries retries.
	assert.Equal(t, 4, attempts)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.False(t, IsPermanent(err))
}

func TestDo_SucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), fastConfig(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
}

func TestDo_RateLimitUsesFixedDelay(t *testing.T) {
	cfg := Config{
		MaxRetries:     1,
		InitialDelay:   time.Millisecond,
		MaxDelay:       time.Millisecond,
		RateLimitDelay: 40 * time.Millisecond,
	}

	start := time.Now()
	attempts := 0
	_, err := Do(context.Background(), cfg, func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("api error 429: slow down")
		}
		return 1, nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	// The fixed rate-limit delay, not the millisecond backoff, must apply.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := Do(ctx, fastConfig(), func() (int, error) {
		attempts++
		cancel()
		return 0, errors.New("timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestBackoffDelay_DoublesAndCaps(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, backoffDelay(cfg, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(cfg, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(cfg, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(cfg, 3))
	assert.Equal(t, 5*time.Second, backoffDelay(cfg, 10))
}
