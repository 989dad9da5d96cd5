package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

// RetryConfig configures RetryDo.
type RetryConfig struct {
	Attempts int           // max attempts (1 = no retry)
	MinDelay time.Duration // first delay
	MaxDelay time.Duration // delay cap
	Jitter   float64       // ±fraction applied to each delay
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		MinDelay: 250 * time.Millisecond,
		MaxDelay: 5 * time.Second,
		Jitter:   0.1,
	}
}

// IsRetryable reports whether an RPC error may succeed on a later attempt:
// gateway errors flagged retryable, UNAVAILABLE and network errors. A closed
// connection is final for this client.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
		return false
	}
	var gerr *protocol.GatewayError
	if errors.As(err, &gerr) {
		return gerr.Retryable || gerr.Code == "UNAVAILABLE"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryDo runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. Delays grow exponentially with jitter.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	attempt := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		result, err := fn()
		if err != nil && !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	},
		backoff.WithBackOff(newRetryBackOff(cfg)),
		backoff.WithMaxTries(uint(cfg.Attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			slog.Debug("gateway: retrying request", "attempt", attempt, "maxAttempts", cfg.Attempts, "delay", delay, "error", err)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return result, err
}

func newRetryBackOff(cfg RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.MinDelay
	b.Multiplier = 2
	b.RandomizationFactor = cfg.Jitter
	if cfg.MaxDelay > 0 {
		b.MaxInterval = cfg.MaxDelay
	}
	b.Reset()
	return b
}
