package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ReconnectConfig tunes RunWithReconnect.
type ReconnectConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	// MaxElapsedTime bounds consecutive failed attempts; zero retries forever.
	MaxElapsedTime time.Duration

	OnConnected    func(c *Client)
	OnDisconnected func(err error)
	OnReconnecting func(attempt uint64, delay time.Duration)
}

func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		Multiplier:          1.7,
		RandomizationFactor: 0.3,
	}
}

// DialFunc opens one connection. It is called for every attempt so connect
// params and TLS params reflect the state at that moment.
type DialFunc func(ctx context.Context) (*Client, error)

// SessionFunc serves one connection until it ends or ctx is done.
type SessionFunc func(ctx context.Context, c *Client) error

// RunWithReconnect dials and serves connections with exponential backoff
// between attempts. It blocks until ctx is cancelled or MaxElapsedTime passes
// without a successful connection.
func RunWithReconnect(ctx context.Context, dial DialFunc, session SessionFunc, cfg *ReconnectConfig) error {
	if cfg == nil {
		cfg = DefaultReconnectConfig()
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.InitialInterval
	expBackoff.MaxInterval = cfg.MaxInterval
	expBackoff.Multiplier = cfg.Multiplier
	expBackoff.RandomizationFactor = cfg.RandomizationFactor
	expBackoff.Reset()

	var attempt uint64
	failingSince := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++

		connected, err := runOnce(ctx, dial, session, cfg)
		if connected {
			expBackoff.Reset()
			failingSince = time.Now()
		}
		if cfg.OnDisconnected != nil {
			cfg.OnDisconnected(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if cfg.MaxElapsedTime > 0 && time.Since(failingSince) >= cfg.MaxElapsedTime {
			return fmt.Errorf("reconnection failed after %v: %w", cfg.MaxElapsedTime, err)
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("reconnection failed: %w", err)
		}
		slog.Warn("gateway: disconnected, reconnecting", "attempt", attempt, "delay", delay, "error", err)
		if cfg.OnReconnecting != nil {
			cfg.OnReconnecting(attempt, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func runOnce(ctx context.Context, dial DialFunc, session SessionFunc, cfg *ReconnectConfig) (bool, error) {
	c, err := dial(ctx)
	if err != nil {
		return false, err
	}
	defer c.Close()

	if cfg.OnConnected != nil {
		cfg.OnConnected(c)
	}
	return true, session(ctx, c)
}
