// Package retry implements the finite, lazy inter-attempt delay sequence
// described in spec.md §4.E. hashicorp/go-retryablehttp (an indirect
// dependency of the teacher, pulled in transitively through go-git's HTTP
// transport) was evaluated for this: its DefaultBackoff/LinearJitterBackoff
// helpers compute the same base*factor^attempt-capped-at-maximum shape.
// It was not adopted directly because those helpers are bound to
// go-retryablehttp's own *http.Client retry loop and don't expose a
// standalone iterator that can be interleaved with a rate limiter and a
// wall-clock budget the way internal/validator requires — so this package
// hand-implements the same formula, decoupled from any HTTP client.
package retry

import (
	"math/rand/v2"
	"time"

	"github.com/kestrelsec/kestrel/internal/types"
)

// Iterator produces a finite sequence of inter-attempt delays. The first
// element is the delay before the first attempt (spec.md §4.E).
type Iterator struct {
	delays []time.Duration
	pos    int
}

// New builds an Iterator from a RetryConfig. rnd supplies the jitter
// source; pass nil to use the package-level math/rand/v2 generator.
func New(cfg types.RetryConfig) *Iterator {
	n := cfg.MaxAttempts
	if n < 1 {
		n = 1
	}
	delays := make([]time.Duration, n)

	switch p := cfg.Policy.(type) {
	case types.FixedPolicy:
		for i := range delays {
			delays[i] = p.Duration
		}
	case types.ExponentialPolicy:
		for i := range delays {
			d := float64(p.Base) * pow(p.Factor, i)
			if max := float64(p.Maximum); p.Maximum > 0 && d > max {
				d = max
			}
			delays[i] = time.Duration(d)
		}
	default:
		// No policy configured: treat as zero delay every attempt.
	}

	if cfg.UseJitter {
		for i, d := range delays {
			delays[i] = jitter(d)
		}
	}

	return &Iterator{delays: delays}
}

// jitter multiplies d by a uniform random factor in [0.5, 1.5], applied
// independently per attempt, per spec.md §4.E.
func jitter(d time.Duration) time.Duration {
	factor := 0.5 + rand.Float64()
	return time.Duration(float64(d) * factor)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// Next returns the next delay and true, or (0, false) once the iterator is
// exhausted.
func (it *Iterator) Next() (time.Duration, bool) {
	if it.pos >= len(it.delays) {
		return 0, false
	}
	d := it.delays[it.pos]
	it.pos++
	return d, true
}

// HasNext reports whether another delay remains after the current
// position, per spec.md §4.F step 2f ("If there is another delay in the
// iterator").
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.delays)
}

// Attempted returns how many delays have been consumed so far, which
// equals the number of attempts made once the HTTP validator advances the
// iterator once per attempt.
func (it *Iterator) Attempted() int {
	return it.pos
}

// MaxAttempts returns the total number of attempts this iterator will
// allow.
func (it *Iterator) MaxAttempts() int {
	return len(it.delays)
}
