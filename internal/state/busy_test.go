package state

import (
	"testing"
	"time"
)

func TestTracker_Transitions(t *testing.T) {
	var tr Tracker
	clock := time.Unix(1000, 0)
	tr.now = func() time.Time { return clock }

	var seen []bool
	tr.OnChange(func(busy bool) { seen = append(seen, busy) })

	if tr.IsBusy() || tr.Elapsed() != 0 {
		t.Fatal("zero tracker should be idle")
	}

	start := tr.Begin()
	if !tr.IsBusy() || !start.Equal(clock) {
		t.Fatalf("after Begin busy=%v start=%v", tr.IsBusy(), start)
	}

	clock = clock.Add(250 * time.Millisecond)
	if again := tr.Begin(); !again.Equal(start) {
		t.Fatalf("nested Begin moved start to %v", again)
	}
	if got := tr.Elapsed(); got != 250*time.Millisecond {
		t.Fatalf("Elapsed = %v, want 250ms", got)
	}

	if d := tr.End(); d != 250*time.Millisecond {
		t.Fatalf("End = %v, want 250ms", d)
	}
	if tr.IsBusy() {
		t.Fatal("busy after End")
	}
	if tr.LastDurationMillis() != 250 {
		t.Fatalf("LastDurationMillis = %d, want 250", tr.LastDurationMillis())
	}

	// End while idle is a no-op.
	if d := tr.End(); d != 250*time.Millisecond {
		t.Fatalf("idle End = %v", d)
	}

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("listener transitions = %v, want [true false]", seen)
	}
}

func TestTracker_NegativeClockSkew(t *testing.T) {
	var tr Tracker
	clock := time.Unix(1000, 0)
	tr.now = func() time.Time { return clock }
	tr.Begin()
	clock = clock.Add(-time.Second)
	if d := tr.End(); d != 0 {
		t.Fatalf("End = %v, want 0 on backwards clock", d)
	}
}
