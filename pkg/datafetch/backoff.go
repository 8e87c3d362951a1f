package datafetch

import (
	"math"
	"time"
)

// Backoff yields the wait before the retry that follows a failed attempt.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff waits initial*factor^attempt, capped at max.
type ExponentialBackoff struct {
	initial time.Duration
	max     time.Duration
	factor  float64
}

func NewExponentialBackoff(initial, max time.Duration, factor float64) *ExponentialBackoff {
	if factor <= 0 {
		factor = 2
	}
	return &ExponentialBackoff{initial: initial, max: max, factor: factor}
}

// Next implements Backoff. attempt is 0-indexed.
func (b *ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.initial) * math.Pow(b.factor, float64(attempt))
	if b.max > 0 && d > float64(b.max) {
		d = float64(b.max)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
