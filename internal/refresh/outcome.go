package refresh

import (
	"fmt"
	"time"

	"github.com/five82/slayergit/internal/state"
)

// Outcome describes one completed refresh cycle.
type Outcome struct {
	// Cycle is a unique id, also logged as the "cycle" field.
	Cycle     string
	Requested state.KindSet
	Changed   state.KindSet
	Failed    state.KindSet
	Errors    map[state.Kind]error
	Started   time.Time
	Duration  time.Duration
}

// Err returns the failure recorded for k, if any.
func (o Outcome) Err(k state.Kind) error {
	return o.Errors[k]
}

// OK reports whether every requested kind was updated.
func (o Outcome) OK() bool {
	return o.Failed.Empty()
}

// DurationMillis is Duration in whole milliseconds.
func (o Outcome) DurationMillis() int64 {
	return o.Duration.Milliseconds()
}

// Summary is the one-line status shown to users, e.g.
// "last refresh: 42ms, 1 kind failed".
func (o Outcome) Summary() string {
	s := fmt.Sprintf("last refresh: %dms", o.DurationMillis())
	switch n := o.Failed.Len(); n {
	case 0:
	case 1:
		s += ", 1 kind failed"
	default:
		s += fmt.Sprintf(", %d kinds failed", n)
	}
	return s
}
