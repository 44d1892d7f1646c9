package types

import "time"

// RetryPolicy selects the shape of the inter-attempt delay sequence
// produced by the Retry Iterator (spec.md §4.E).
type RetryPolicy interface {
	isRetryPolicy()
}

// FixedPolicy repeats one duration for every attempt.
type FixedPolicy struct {
	Duration time.Duration
}

func (FixedPolicy) isRetryPolicy() {}

// ExponentialPolicy produces delays d_i = min(Base * Factor^i, Maximum).
type ExponentialPolicy struct {
	Base    time.Duration
	Factor  float64
	Maximum time.Duration
}

func (ExponentialPolicy) isRetryPolicy() {}

// RetryConfig configures the Retry Iterator for one HTTPValidator
// (spec.md §3 "RetryConfig").
type RetryConfig struct {
	MaxAttempts int
	UseJitter   bool
	Policy      RetryPolicy
}

// DefaultRetryConfig matches the teacher's regexp2 MatchTimeout-style
// defaults: a handful of attempts, modest exponential backoff, jitter on
// by default so concurrent validators don't synchronize retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		UseJitter:   true,
		Policy: ExponentialPolicy{
			Base:    100 * time.Millisecond,
			Factor:  2,
			Maximum: 5 * time.Second,
		},
	}
}
