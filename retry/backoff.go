package retry

import (
	"math"
	"time"
)

// Backoff calculates the delay between retry attempts.
type Backoff interface {
	// Delay returns the duration to wait after the given zero-indexed
	// failed attempt.
	Delay(attempt uint) time.Duration
}

// FixedBackoff waits the same duration between every attempt. This is the
// policy the transition executor uses: a failed navigation action is worth
// retrying quickly, and spreading attempts out does not help a driver who is
// already moving.
type FixedBackoff struct {
	Interval time.Duration
}

// Delay implements Backoff. The attempt index is ignored.
func (b FixedBackoff) Delay(uint) time.Duration {
	return b.Interval
}

// ExpBackoff implements exponential backoff: Base * Factor^attempt, clamped
// between Base and Max.
//
// Example:
//
//	backoff := retry.ExpBackoff{
//	    Base:   100 * time.Millisecond,
//	    Max:    10 * time.Second,
//	    Factor: 2.0,
//	}
type ExpBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// Delay implements Backoff.
func (b ExpBackoff) Delay(attempt uint) time.Duration {
	f := float64(b.Base) * math.Pow(b.Factor, float64(attempt))

	d := time.Duration(f)
	if d < b.Base {
		return b.Base
	} else if d > b.Max {
		return b.Max
	}

	return d
}
