// Package ratelimit provides the minimum inter-call interval policy used to
// pace outbound requests against providers with per-client rate limits.
package ratelimit

import (
	"context"
	"time"
)

// Limiter is consulted before each outbound call.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval enforces a hard lower bound on the elapsed time between the
// starts of consecutive calls. It is not safe for concurrent use; each
// sequential batch owns its own Interval.
type Interval struct {
	min  time.Duration
	last time.Time
}

// NewInterval creates an Interval limiter. A non-positive minimum disables
// waiting entirely.
func NewInterval(min time.Duration) *Interval {
	return &Interval{min: min}
}

// Wait blocks until at least the configured minimum has elapsed since the
// previous Wait returned, or until ctx is cancelled.
func (i *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if i.min > 0 && !i.last.IsZero() {
		if remaining := i.min - time.Since(i.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	i.last = time.Now()
	return nil
}
