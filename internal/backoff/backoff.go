package backoff

import (
	"sync/atomic"
	"time"
)

// Config holds the three backoff tiers and the failure counts at which the
// delay escalates from one tier to the next.
type Config struct {
	InitialDelay         time.Duration
	RepeatedDelay        time.Duration
	FinalDelay           time.Duration
	InitialFailureCount  uint32
	RepeatedFailureCount uint32
}

// Backoff produces escalating reconnection delays. The first
// InitialFailureCount failures yield InitialDelay, the next
// RepeatedFailureCount yield RepeatedDelay, everything beyond that yields
// FinalDelay until Reset.
type Backoff struct {
	cfg      Config
	failures atomic.Uint32
}

// New creates a Backoff from the given tier configuration.
func New(cfg Config) *Backoff {
	return &Backoff{cfg: cfg}
}

// Next increases the failure counter and returns the delay to wait before
// the next attempt.
func (b *Backoff) Next() time.Duration {
	failures := b.failures.Add(1)

	if failures <= b.cfg.InitialFailureCount {
		return b.cfg.InitialDelay
	}

	if failures-b.cfg.InitialFailureCount <= b.cfg.RepeatedFailureCount {
		return b.cfg.RepeatedDelay
	}

	return b.cfg.FinalDelay
}

// Reset clears the failure counter, returning the backoff to its minimum.
func (b *Backoff) Reset() {
	b.failures.Store(0)
}

// Failures returns the number of consecutive failures recorded since the
// last reset.
func (b *Backoff) Failures() uint32 {
	return b.failures.Load()
}
