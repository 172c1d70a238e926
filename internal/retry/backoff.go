// Package retry provides the exponential backoff schedule used when a
// recoverable operation keeps failing.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff implements exponential backoff with optional jitter.  Zero
// fields use the defaults noted on each.
type Backoff struct {
	// InitialDelay is the delay after the first failure (default 1s).
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration (default 60s).
	MaxDelay time.Duration
	// Multiplier increases the delay each attempt (default 2.0).
	Multiplier float64
	// Jitter adds ±25% randomisation to prevent thundering herd.
	Jitter bool
}

// AcceptBackoff is the schedule for repeated accept failures: 5ms
// doubling up to one second, the same curve net/http uses.
func AcceptBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
}

// Delay returns the wait before retry number attempt (1-based).
// Jitter is not applied here.
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	if attempt < 1 {
		attempt = 1
	}

	d := float64(delay) * math.Pow(multiplier, float64(attempt-1))
	if d > float64(maxDelay) || math.IsInf(d, 0) {
		return maxDelay
	}
	return time.Duration(d)
}

// Wait sleeps for Delay(attempt), with jitter if enabled.  It returns
// ctx.Err() if ctx ends first.
func (b *Backoff) Wait(ctx context.Context, attempt int) error {
	wait := b.Delay(attempt)
	if b.Jitter {
		wait = addJitter(wait)
	}

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	result := float64(d) + delta
	return time.Duration(math.Max(result, float64(time.Millisecond)))
}
