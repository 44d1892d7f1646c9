package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel/internal/template"
	"github.com/kestrelsec/kestrel/internal/types"
)

// fakeClock is a manually-advanced clock; time.Sleep inside HTTPValidator
// still runs on the real clock, so tests keep durations in the low
// milliseconds to stay fast while still exercising real sleeps.
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func mustTemplate(t *testing.T, src string) template.Template {
	t.Helper()
	tpl, err := template.Parse(src)
	require.NoError(t, err)
	return tpl
}

func candidateWithSecret(secret string) *types.Candidate {
	return &types.Candidate{
		RuleID:    "rule-1",
		FullMatch: []byte(secret),
		Captures:  map[string][]byte{"secret": []byte(secret)},
	}
}

func TestHTTPValidator_ImmediateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL+"/check"),
		Retry:  types.RetryConfig{MaxAttempts: 3, Policy: types.FixedPolicy{Duration: time.Millisecond}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
			{StatusCodes: []int{401, 403}, Action: types.ReturnNotSecret()},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-live-abc"))
	require.Equal(t, types.KindSecret, result.Kind)
	assert.Equal(t, types.SeverityHigh, result.Severity)
}

func TestHTTPValidator_NotSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 1, Policy: types.FixedPolicy{Duration: 0}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
			{StatusCodes: []int{401}, Action: types.ReturnNotSecret()},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-dead"))
	require.Equal(t, types.KindNotSecret, result.Kind)
}

func TestHTTPValidator_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 5, Policy: types.FixedPolicy{Duration: time.Millisecond}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityMedium)},
			{StatusCodes: []int{503}, Action: types.Retry()},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-flaky"))
	require.Equal(t, types.KindSecret, result.Kind)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPValidator_AttemptsExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 2, Policy: types.FixedPolicy{Duration: time.Millisecond}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{503}, Action: types.Retry()},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-dead-retry"))
	require.Equal(t, types.KindValidationError, result.Kind)
	var exceeded *types.RetryAttemptsExceededError
	assert.ErrorAs(t, result.Err, &exceeded)
	assert.Equal(t, 2, exceeded.Attempted)
}

func TestHTTPValidator_AbortStopsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 5, Policy: types.FixedPolicy{Duration: time.Millisecond}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{418}, Action: types.Abort("teapot means misconfigured endpoint")},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-abort"))
	require.Equal(t, types.KindValidationError, result.Kind)
	var aborted *types.RequestedAbortError
	assert.ErrorAs(t, result.Err, &aborted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPValidator_UnhandledStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusImUsed)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 1, Policy: types.FixedPolicy{Duration: 0}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityLow)},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-weird"))
	require.Equal(t, types.KindValidationError, result.Kind)
	var unhandled *types.UnhandledResponseError
	assert.ErrorAs(t, result.Err, &unhandled)
}

func TestHTTPValidator_RetryAfterHonoursServerHint(t *testing.T) {
	var calls int32
	var firstCallAt, secondCallAt time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			firstCallAt = time.Now()
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		secondCallAt = time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 2, Policy: types.FixedPolicy{Duration: time.Millisecond}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
			{StatusCodes: []int{429}, Action: types.RetryAfterAction(40 * time.Millisecond)},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-429"))
	require.Equal(t, types.KindSecret, result.Kind)
	assert.GreaterOrEqual(t, secondCallAt.Sub(firstCallAt), 35*time.Millisecond)
}

func TestHTTPValidator_AttemptedCacheShortCircuitsSecondCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	def := Definition{
		ID:     "validator:rule-1",
		Method: http.MethodGet,
		URL:    mustTemplate(t, srv.URL),
		Retry:  types.RetryConfig{MaxAttempts: 1, Policy: types.FixedPolicy{Duration: 0}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
		},
	}
	cache := NewAttemptedCache()
	v := New(def, srv.Client(), cache, &fakeClock{now: time.Unix(0, 0)})

	c := candidateWithSecret("sk-repeat")
	first := v.Validate(context.Background(), c)
	second := v.Validate(context.Background(), c)

	require.Equal(t, types.KindSecret, first.Kind)
	require.Equal(t, types.KindSecret, second.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPValidator_TimeBudgetExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	def := Definition{
		ID:         "validator:rule-1",
		Method:     http.MethodGet,
		URL:        mustTemplate(t, srv.URL),
		Retry:      types.RetryConfig{MaxAttempts: 10, Policy: types.FixedPolicy{Duration: 100 * time.Millisecond}},
		TimeBudget: 50 * time.Millisecond,
		Handlers: []ResponseHandler{
			{StatusCodes: []int{503}, Action: types.Retry()},
		},
	}
	v := New(def, srv.Client(), nil, &fakeClock{now: time.Unix(0, 0)})

	result := v.Validate(context.Background(), candidateWithSecret("sk-budget"))
	require.Equal(t, types.KindValidationError, result.Kind)
	var willExceed *types.RetryWillExceedTimeError
	assert.ErrorAs(t, result.Err, &willExceed)
}

func TestHTTPValidator_RateLimitSpacesOutAttempts(t *testing.T) {
	var calls int32
	var firstCallAt, secondCallAt time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			firstCallAt = time.Now()
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		secondCallAt = time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	def := Definition{
		ID:                "validator:rule-1",
		Method:            http.MethodGet,
		URL:               mustTemplate(t, srv.URL),
		RateLimitInterval: 40 * time.Millisecond,
		Retry:             types.RetryConfig{MaxAttempts: 2, Policy: types.FixedPolicy{Duration: 0}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
			{StatusCodes: []int{503}, Action: types.Retry()},
		},
	}
	// Uses the real clock (clock=nil): the rate-limit wait loop re-queries
	// the limiter after each real sleep, which requires Now() to actually
	// advance with wall-clock time — a frozen fakeClock would never
	// converge.
	v := New(def, srv.Client(), nil, nil)

	result := v.Validate(context.Background(), candidateWithSecret("sk-ratelimited"))
	require.Equal(t, types.KindSecret, result.Kind)
	assert.GreaterOrEqual(t, secondCallAt.Sub(firstCallAt), 35*time.Millisecond)
}

func TestHTTPValidator_RateLimitWaitRespectsTimeBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// The rate-limit interval alone exceeds the time budget, so the second
	// attempt must fail while still waiting on the limiter rather than
	// waiting the full interval and firing anyway.
	def := Definition{
		ID:                "validator:rule-1",
		Method:            http.MethodGet,
		URL:               mustTemplate(t, srv.URL),
		RateLimitInterval: 200 * time.Millisecond,
		TimeBudget:        20 * time.Millisecond,
		Retry:             types.RetryConfig{MaxAttempts: 5, Policy: types.FixedPolicy{Duration: 0}},
		Handlers: []ResponseHandler{
			{StatusCodes: []int{503}, Action: types.Retry()},
		},
	}
	v := New(def, srv.Client(), nil, nil)

	result := v.Validate(context.Background(), candidateWithSecret("sk-budget-ratelimit"))
	require.Equal(t, types.KindValidationError, result.Kind)
	var exceeded *types.RetryTimeExceededError
	assert.ErrorAs(t, result.Err, &exceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRegistry_LookupAndLen(t *testing.T) {
	def := Definition{ID: "validator:rule-1", Method: http.MethodGet, URL: mustTemplate(t, "http://example.invalid")}
	v := New(def, nil, nil, nil)
	reg := NewRegistry([]Validator{v})

	got, ok := reg.Lookup("validator:rule-1")
	require.True(t, ok)
	assert.Equal(t, types.ValidatorId("validator:rule-1"), got.ID())
	assert.Equal(t, 1, reg.Len())

	_, ok = reg.Lookup("validator:missing")
	assert.False(t, ok)
}
