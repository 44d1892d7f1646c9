package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually-advanced Clock for deterministic tests
// (spec.md §9 "Clock parameterization").
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestLimiter_FirstCheckAlwaysReady(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	lim := New(time.Second, clock)
	d := lim.Check()
	require.True(t, d.Ready)
}

func TestLimiter_SecondImmediateCheckMustWait(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	lim := New(time.Second, clock)

	first := lim.Check()
	require.True(t, first.Ready)

	second := lim.Check()
	require.False(t, second.Ready)
	assert.True(t, second.At.After(clock.Now()))
	assert.WithinDuration(t, clock.Now().Add(time.Second), second.At, 10*time.Millisecond)
}

func TestLimiter_FailedCheckDoesNotConsumeSlot(t *testing.T) {
	// Three rapid-fire checks against a 1/sec limiter should all report
	// the *same* WaitUntil instant — a failed check must not burn the
	// single slot, matching spec.md's "rate-limit waits do not consume
	// retry attempts" invariant (property 6 in spec.md §8).
	clock := &fakeClock{now: time.Unix(0, 0)}
	lim := New(time.Second, clock)

	require.True(t, lim.Check().Ready)
	a := lim.Check()
	b := lim.Check()
	require.False(t, a.Ready)
	require.False(t, b.Ready)
	assert.Equal(t, a.At, b.At)
}

func TestLimiter_ReadyAfterClockAdvances(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	lim := New(time.Second, clock)

	require.True(t, lim.Check().Ready)
	require.False(t, lim.Check().Ready)

	clock.Advance(time.Second)
	require.True(t, lim.Check().Ready)
}
