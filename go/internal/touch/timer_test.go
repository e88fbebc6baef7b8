package touch

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectFire(t *testing.T, fired <-chan uint64) uint64 {
	t.Helper()
	select {
	case tok := <-fired:
		return tok
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for inactivity callback")
		return 0
	}
}

func expectQuiet(t *testing.T, fired <-chan uint64) {
	t.Helper()
	select {
	case tok := <-fired:
		t.Fatalf("unexpected inactivity callback for arm %d", tok)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInactivityTimerFiresOnceAfterQuietPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewInactivityTimer(clock, DefaultInactivity, func(tok uint64) { fired <- tok })

	tok := timer.Touch()
	assert.True(t, timer.Pending())

	clock.Advance(DefaultInactivity)
	assert.Equal(t, tok, expectFire(t, fired))
	assert.False(t, timer.Pending())

	clock.Advance(10 * DefaultInactivity)
	expectQuiet(t, fired)
}

func TestInactivityTimerTouchSupersedesDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewInactivityTimer(clock, DefaultInactivity, func(tok uint64) { fired <- tok })

	var last uint64
	for i := 0; i < 5; i++ {
		last = timer.Touch()
		clock.Advance(DefaultInactivity - time.Millisecond)
	}
	expectQuiet(t, fired)

	clock.Advance(time.Millisecond)
	assert.Equal(t, last, expectFire(t, fired))
	expectQuiet(t, fired)
}

func TestInactivityTimerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewInactivityTimer(clock, DefaultInactivity, func(tok uint64) { fired <- tok })

	timer.Touch()
	timer.Cancel()
	assert.False(t, timer.Pending())

	clock.Advance(2 * DefaultInactivity)
	expectQuiet(t, fired)
}

func TestInactivityTimerIgnoresStaleArm(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan uint64, 4)
	timer := NewInactivityTimer(clock, DefaultInactivity, func(tok uint64) { fired <- tok })

	stale := timer.Touch()
	current := timer.Touch()
	require.NotEqual(t, stale, current)

	// an expiry that lost the race with Touch must be dropped
	timer.fire(stale)
	expectQuiet(t, fired)

	clock.Advance(DefaultInactivity)
	assert.Equal(t, current, expectFire(t, fired))
}

func TestNewInactivityTimerDefaultsDuration(t *testing.T) {
	timer := NewInactivityTimer(clockwork.NewFakeClock(), 0, nil)
	assert.Equal(t, DefaultInactivity, timer.Duration())
}
