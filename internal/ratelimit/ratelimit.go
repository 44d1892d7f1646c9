// Package ratelimit implements the single-slot token-bucket rate limiter
// shared by one HTTPValidator across concurrent scan dispatch (spec.md
// §4.D). It wraps golang.org/x/time/rate, whose Reserve/Allow family
// already takes an explicit `now time.Time` on every call — exactly the
// clock-injection seam spec.md §4.D and §9 ask for — instead of
// hand-rolling a bucket.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts wall-clock time so tests can drive the limiter
// deterministically (spec.md §9 "Clock parameterization").
type Clock interface {
	Now() time.Time
}

// RealClock uses the process wall clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// Decision is the result of Limiter.Check (spec.md §4.D "Ok | WaitUntil").
type Decision struct {
	// Ready is true when the caller may proceed immediately.
	Ready bool
	// At is the instant the caller should wait until when Ready is false.
	At time.Time
}

// Limiter enforces a configured request rate. Safe for concurrent use;
// internal state is owned entirely by the wrapped rate.Limiter, which is
// already lock-protected (spec.md §5 "lock-protected internal state").
type Limiter struct {
	rl    *rate.Limiter
	clock Clock
}

// New creates a Limiter allowing one request every `interval`, with a
// single-slot burst — spec.md §4.D calls this a "single-slot token-bucket".
func New(interval time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = RealClock{}
	}
	var limit rate.Limit
	if interval <= 0 {
		limit = rate.Inf
	} else {
		limit = rate.Every(interval)
	}
	return &Limiter{rl: rate.NewLimiter(limit, 1), clock: clock}
}

// Check queries the limiter. A failed check (Ready == false) never
// consumes the slot — the underlying reservation is cancelled — so
// rate-limit waits do not themselves count against a retry budget
// (spec.md §4.F invariant: "Rate-limit delays... do not consume retry
// attempts").
func (l *Limiter) Check() Decision {
	now := l.clock.Now()
	r := l.rl.ReserveN(now, 1)
	if !r.OK() {
		// Burst of 1 with a finite rate always reports OK=true; this
		// branch only guards against a misconfigured limiter.
		return Decision{Ready: false, At: now}
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return Decision{Ready: true}
	}
	r.CancelAt(now)
	return Decision{Ready: false, At: now.Add(delay)}
}
