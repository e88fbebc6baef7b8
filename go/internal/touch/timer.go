package touch

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInactivity is how long a round waits without pointer activity before resolving
const DefaultInactivity = 2000 * time.Millisecond

// InactivityTimer is a single-shot countdown. Every Touch supersedes the
// previous deadline; the callback runs at most once per arm and never for an
// arm that was superseded or cancelled.
type InactivityTimer struct {
	clock    clockwork.Clock
	duration time.Duration
	onExpire func(token uint64)

	mu    sync.Mutex
	timer clockwork.Timer
	token uint64
}

// NewInactivityTimer creates an unarmed timer
func NewInactivityTimer(clock clockwork.Clock, d time.Duration, onExpire func(token uint64)) *InactivityTimer {
	if d <= 0 {
		d = DefaultInactivity
	}
	return &InactivityTimer{
		clock:    clock,
		duration: d,
		onExpire: onExpire,
	}
}

// Touch cancels any pending deadline and arms a new one from now.
// The returned token is handed to the callback if this arm expires.
func (t *InactivityTimer) Touch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	stopTimer(t.timer)
	t.token++
	token := t.token
	t.timer = t.clock.AfterFunc(t.duration, func() { t.fire(token) })
	return token
}

// Cancel clears the pending deadline without invoking the callback
func (t *InactivityTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	stopTimer(t.timer)
	t.timer = nil
	t.token++
}

// Pending reports whether a deadline is armed
func (t *InactivityTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *InactivityTimer) Duration() time.Duration { return t.duration }

func (t *InactivityTimer) fire(token uint64) {
	t.mu.Lock()
	if token != t.token || t.timer == nil {
		// superseded between expiry and lock
		t.mu.Unlock()
		return
	}
	t.timer = nil
	cb := t.onExpire
	t.mu.Unlock()

	if cb != nil {
		cb(token)
	}
}

func stopTimer(timer clockwork.Timer) {
	if timer != nil {
		timer.Stop()
	}
}
