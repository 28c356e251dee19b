package backoff

import (
	"context"
	"fmt"
	"time"
)

// Config bounds a readiness wait: how long to keep trying in total, how long
// to pause between attempts, and how the pause grows.
type Config struct {
	MaxWait     time.Duration
	Interval    time.Duration
	Multiplier  float64
	MaxInterval time.Duration
}

// DefaultConfig polls once a second for up to fifteen seconds, which covers
// a container engine daemon that is still starting up.
func DefaultConfig() Config {
	return Config{
		MaxWait:     15 * time.Second,
		Interval:    time.Second,
		Multiplier:  1.0,
		MaxInterval: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultConfig().MaxWait
	}
	if c.Interval <= 0 {
		c.Interval = DefaultConfig().Interval
	}
	return c
}

// WaitError reports that the probe never succeeded inside the wait budget.
// Unwrap exposes the last probe error.
type WaitError struct {
	MaxWait  time.Duration
	Attempts int
	Err      error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("gave up after %s (%d attempts): %v", e.MaxWait, e.Attempts, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// Until runs probe until it returns nil, the wait budget is spent, or ctx is
// cancelled. The first attempt happens immediately; later attempts are spaced
// by the configured interval, grown by the multiplier up to MaxInterval.
func Until(ctx context.Context, cfg Config, probe func(context.Context) error) error {
	cfg = cfg.withDefaults()
	deadline := time.Now().Add(cfg.MaxWait)

	delay := cfg.Interval
	for attempt := 1; ; attempt++ {
		err := probe(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !time.Now().Add(delay).Before(deadline) {
			return &WaitError{MaxWait: cfg.MaxWait, Attempts: attempt, Err: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = NextDelay(cfg, delay)
	}
}

// NextDelay grows the current delay by the multiplier, capped at MaxInterval.
// Multipliers at or below 1 keep the polling interval constant.
func NextDelay(cfg Config, current time.Duration) time.Duration {
	if cfg.Multiplier <= 1.0 {
		return current
	}
	next := time.Duration(float64(current) * cfg.Multiplier)
	if cfg.MaxInterval > 0 && next > cfg.MaxInterval {
		next = cfg.MaxInterval
	}
	return next
}
