package state

import (
	"sync"
	"time"
)

// Tracker is the Idle -> Loading -> Idle state machine shown by the UI.
// The zero value is idle.
type Tracker struct {
	mu           sync.RWMutex
	busy         bool
	since        time.Time
	lastDuration time.Duration
	listeners    []func(busy bool)
	now          func() time.Time
}

func (t *Tracker) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

// OnChange registers fn to run after every transition. fn runs on the
// goroutine that caused the transition and must not block.
func (t *Tracker) OnChange(fn func(busy bool)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Begin moves to Loading and returns the start time. Calling Begin while
// already loading keeps the original start time.
func (t *Tracker) Begin() time.Time {
	t.mu.Lock()
	if t.busy {
		since := t.since
		t.mu.Unlock()
		return since
	}
	t.busy = true
	t.since = t.clock()
	since := t.since
	listeners := t.listeners
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(true)
	}
	return since
}

// End moves to Idle and records the elapsed time since Begin.
func (t *Tracker) End() time.Duration {
	t.mu.Lock()
	if !t.busy {
		d := t.lastDuration
		t.mu.Unlock()
		return d
	}
	d := t.clock().Sub(t.since)
	if d < 0 {
		d = 0
	}
	t.busy = false
	t.lastDuration = d
	listeners := t.listeners
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(false)
	}
	return d
}

// IsBusy reports whether a cycle is in progress.
func (t *Tracker) IsBusy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.busy
}

// State returns the busy flag and when the current cycle began.
func (t *Tracker) State() (bool, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.busy, t.since
}

// Elapsed is the time spent in the current cycle, or zero when idle.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.busy {
		return 0
	}
	return t.clock().Sub(t.since)
}

// LastDuration is the wall time of the most recently completed cycle.
func (t *Tracker) LastDuration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastDuration
}

// LastDurationMillis is LastDuration in whole milliseconds.
func (t *Tracker) LastDurationMillis() int64 {
	return t.LastDuration().Milliseconds()
}
