package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(http.StatusBadGateway)
		}
		return nil
	}, nil, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_FatalStops(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Fatal(errors.New("forbidden"))
	}, nil, fastConfig(5))

	assert.EqualError(t, err, "forbidden")
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return statusErr(http.StatusInternalServerError)
	}, nil, fastConfig(3))

	assert.ErrorContains(t, err, "max attempts (3) exceeded")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetryConfig(ctx, func() error { return nil }, nil, fastConfig(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiter_BacksOffOnRateLimit(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 16, 1, 0.5)

	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return statusErr(http.StatusTooManyRequests)
		}
		return nil
	}, lim, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 4.0, lim.CurrentLimit())
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 3, 5, 0.1)
	lim.cooldown = 0

	lim.Success()
	assert.Equal(t, 3.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit())
	assert.Equal(t, rate.Limit(1), lim.minLimit)
}

func TestStatusCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("create command: %w", statusErr(http.StatusTooManyRequests))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.True(t, DefaultClassifier(err))
	assert.False(t, DefaultClassifier(errors.New("plain")))
}
