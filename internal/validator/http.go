package validator

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kestrelsec/kestrel/internal/ratelimit"
	"github.com/kestrelsec/kestrel/internal/retry"
	"github.com/kestrelsec/kestrel/internal/types"
)

// Clock is re-exported so callers assembling an HTTPValidator don't need to
// import internal/ratelimit directly.
type Clock = ratelimit.Clock

// HTTPValidator confirms a Candidate by issuing HTTP requests per
// spec.md §4.F, interleaving a shared AttemptedCache, a single-slot rate
// limiter, and a finite retry iterator under a wall-clock budget. Grounded
// on the teacher's pkg/validator/http.go (HTTPValidator, NewHTTPValidator,
// Validate), generalized from a single request/evaluate pass into the full
// retry/rate-limit/budget state machine spec.md §4.F requires.
type HTTPValidator struct {
	def    Definition
	client *http.Client
	cache  *AttemptedCache
	limit  *ratelimit.Limiter
	clock  Clock
}

// New builds an HTTPValidator. client defaults to http.DefaultClient when
// nil; cache and clock default to a fresh AttemptedCache and the real wall
// clock when nil.
func New(def Definition, client *http.Client, cache *AttemptedCache, clock Clock) *HTTPValidator {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewAttemptedCache()
	}
	if clock == nil {
		clock = ratelimit.RealClock{}
	}
	return &HTTPValidator{
		def:    def,
		client: client,
		cache:  cache,
		limit:  ratelimit.New(def.RateLimitInterval, clock),
		clock:  clock,
	}
}

// ID returns the ValidatorId this validator was built for.
func (v *HTTPValidator) ID() types.ValidatorId { return v.def.ID }

// Validate runs the full spec.md §4.F algorithm for one candidate.
func (v *HTTPValidator) Validate(ctx context.Context, c *types.Candidate) *types.ValidationResult {
	// Step 1: attempted-cache lookup (spec.md §4.F step 1).
	if cached, ok := v.cache.Lookup(v.def.ID, c.FullMatch); ok {
		return cached
	}

	result := v.run(ctx, c)
	v.cache.Store(v.def.ID, c.FullMatch, result)
	return result
}

// run executes the retry loop. Each of the retry iterator's MaxAttempts
// positions consumes exactly one delay and makes exactly one HTTP attempt;
// the consumed delay is slept as the gap *after* that attempt, gated on
// whether the iterator has another delay remaining — so no delay is slept
// before the first attempt and none is slept after the last (spec.md §4.F
// steps 2-3, reconciled against scenarios S3-S5 in spec.md §8).
func (v *HTTPValidator) run(ctx context.Context, c *types.Candidate) *types.ValidationResult {
	it := retry.New(v.def.Retry)
	start := v.clock.Now()
	hasBudget := v.def.TimeBudget > 0

	for {
		delay, ok := it.Next()
		if !ok {
			return types.AsValidationError(&types.RetryAttemptsExceededError{RetryBudget: types.RetryBudget{
				Attempted: it.Attempted(),
				Elapsed:   v.clock.Now().Sub(start),
				MaxBudget: v.def.TimeBudget,
			}})
		}

		if hasBudget {
			elapsed := v.clock.Now().Sub(start)
			if elapsed >= v.def.TimeBudget {
				return types.AsValidationError(&types.RetryTimeExceededError{RetryBudget: types.RetryBudget{
					Attempted: it.Attempted(),
					Elapsed:   elapsed,
					MaxBudget: v.def.TimeBudget,
				}})
			}
		}

		// Rate-limit wait happens per attempt but never consumes a retry
		// attempt itself (internal/ratelimit's Check never burns the slot
		// on failure, and the wait below isn't charged against it either).
		if err := v.waitForRateLimit(start, it, hasBudget); err != nil {
			return types.AsValidationError(err)
		}

		snapshot, transportErr := v.attempt(ctx, c)
		var action types.NextAction
		if transportErr != nil {
			// A transport failure (DNS, connection refused, TLS, context
			// cancellation) never reaches a ResponseHandler — there is no
			// response to classify — and is always treated as retryable.
			snapshot = &types.ResponseSnapshot{TransportErr: transportErr}
			action = types.Retry()
		} else {
			action = Classify(v.def.Handlers, snapshot)
		}
		switch action.Kind {
		case types.ActionReturnResult:
			return action.Result()
		case types.ActionAbort:
			return types.AsValidationError(&types.RequestedAbortError{
				StatusCode: snapshot.StatusCode,
				Reason:     action.Description,
			})
		case types.ActionUnhandled:
			return types.AsValidationError(&types.UnhandledResponseError{
				StatusCode: snapshot.StatusCode,
				Reason:     action.Description,
			})
		case types.ActionRetryAfter:
			// Retry-After precedence: to_sleep = max(scheduled_delay, server_hint)
			// (spec.md §4.F step 2f, reconciled scenario S4).
			toSleep := delay
			if action.RetryAfter > toSleep {
				toSleep = action.RetryAfter
			}
			if !it.HasNext() {
				return types.AsValidationError(&types.RetryAttemptsExceededError{RetryBudget: types.RetryBudget{
					Attempted: it.Attempted(),
					Elapsed:   v.clock.Now().Sub(start),
					MaxBudget: v.def.TimeBudget,
				}})
			}
			if hasBudget {
				elapsed := v.clock.Now().Sub(start)
				if elapsed+toSleep >= v.def.TimeBudget {
					return types.AsValidationError(&types.RetryWillExceedTimeError{RetryBudget: types.RetryBudget{
						Attempted: it.Attempted(),
						Elapsed:   elapsed,
						NextDelay: toSleep,
						MaxBudget: v.def.TimeBudget,
					}})
				}
			}
			v.sleep(toSleep)
		case types.ActionRetry:
			if !it.HasNext() {
				continue // loop back; Next() will report exhaustion
			}
			if hasBudget {
				elapsed := v.clock.Now().Sub(start)
				if elapsed+delay >= v.def.TimeBudget {
					return types.AsValidationError(&types.RetryWillExceedTimeError{RetryBudget: types.RetryBudget{
						Attempted: it.Attempted(),
						Elapsed:   elapsed,
						NextDelay: delay,
						MaxBudget: v.def.TimeBudget,
					}})
				}
			}
			v.sleep(delay)
		}
	}
}

// waitForRateLimit blocks until the shared rate limiter grants a slot,
// re-querying the limiter after every wait rather than sleeping once and
// firing unconditionally — Limiter.Check cancels its reservation whenever
// it reports not-ready, so a caller that doesn't re-check never actually
// re-acquires a token, and two concurrent callers waiting on the same
// window would both fire (spec.md §4.D "per-endpoint limits hold under
// concurrent scan dispatch"). Each iteration is also checked against the
// time budget, so a validator cannot block past max_attempt_duration and
// then still fire the request (spec.md §5 self-termination, §4.F step 2a).
func (v *HTTPValidator) waitForRateLimit(start time.Time, it *retry.Iterator, hasBudget bool) error {
	for {
		d := v.limit.Check()
		if d.Ready {
			return nil
		}
		if hasBudget {
			elapsed := d.At.Sub(start)
			if elapsed >= v.def.TimeBudget {
				return &types.RetryTimeExceededError{RetryBudget: types.RetryBudget{
					Attempted: it.Attempted(),
					Elapsed:   v.clock.Now().Sub(start),
					MaxBudget: v.def.TimeBudget,
				}}
			}
		}
		v.sleepUntil(d.At)
	}
}

func (v *HTTPValidator) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

func (v *HTTPValidator) sleepUntil(at time.Time) {
	d := at.Sub(v.clock.Now())
	v.sleep(d)
}

// attempt builds and sends exactly one HTTP request for c.
func (v *HTTPValidator) attempt(ctx context.Context, c *types.Candidate) (*types.ResponseSnapshot, error) {
	url := v.def.URL.Render(c)

	var bodyReader io.Reader
	if v.def.Body != nil {
		bodyReader = strings.NewReader(v.def.Body.Render(c))
	}

	req, err := http.NewRequestWithContext(ctx, v.def.Method, url, bodyReader)
	if err != nil {
		return nil, &types.InvalidUrlError{Source: url, Cause: err}
	}
	for _, h := range v.def.Headers {
		req.Header.Set(h.Name, h.Value.Render(c))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)
	return &types.ResponseSnapshot{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
