// Package resilience provides reliability patterns for connection handling.
package resilience

import "time"

// Backoff computes exponential reconnect delays: the base delay doubles on
// each attempt up to a fixed attempt ceiling. Not safe for concurrent use;
// callers own one Backoff per connection.
type Backoff struct {
	base    time.Duration
	ceiling int
	attempt int
}

// NewBackoff creates a Backoff with the given base delay and attempt
// ceiling. A ceiling of zero means the first failure is already final.
func NewBackoff(base time.Duration, ceiling int) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	return &Backoff{base: base, ceiling: ceiling}
}

// Next returns the delay before the next attempt and whether an attempt is
// still allowed. Exhaustion is permanent until Reset.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.attempt >= b.ceiling {
		return 0, false
	}
	delay := b.base << uint(b.attempt)
	b.attempt++
	return delay, true
}

// Attempts returns how many attempts have been consumed.
func (b *Backoff) Attempts() int { return b.attempt }

// Reset makes the full attempt budget available again, after a successful
// connection or an explicit manual reconnect.
func (b *Backoff) Reset() { b.attempt = 0 }
