package app

import (
	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

// Report is the machine-readable result of a headless refresh.
type Report struct {
	Cycle          string            `json:"cycle"`
	DurationMillis int64             `json:"duration_ms"`
	Requested      []string          `json:"requested"`
	Changed        []string          `json:"changed"`
	Failed         []string          `json:"failed,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
	Data           map[string]any    `json:"data,omitempty"`
	Summary        string            `json:"summary"`
}

// OK reports whether every requested kind refreshed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// NewReport builds a Report from a cycle outcome and the store contents
// after it settled. Data holds only the kinds the cycle updated.
func NewReport(out refresh.Outcome, snap state.Snapshot) Report {
	r := Report{
		Cycle:          out.Cycle,
		DurationMillis: out.DurationMillis(),
		Requested:      out.Requested.Strings(),
		Changed:        out.Changed.Strings(),
		Failed:         out.Failed.Strings(),
		Summary:        out.Summary(),
	}
	if len(r.Failed) > 0 {
		r.Errors = make(map[string]string, len(r.Failed))
		for _, k := range out.Failed.Kinds() {
			if err := out.Err(k); err != nil {
				r.Errors[k.String()] = err.Error()
			}
		}
	}
	if !out.Changed.Empty() {
		r.Data = make(map[string]any, out.Changed.Len())
		for _, k := range out.Changed.Kinds() {
			r.Data[k.String()] = snapshotValue(snap, k)
		}
	}
	return r
}

func snapshotValue(snap state.Snapshot, k state.Kind) any {
	switch k {
	case state.Status:
		return snap.Status
	case state.LocalBranches:
		return snap.LocalBranches
	case state.RemoteBranches:
		return snap.RemoteBranches
	case state.Commits:
		return snap.Commits
	case state.Reflog:
		return snap.Reflog
	case state.Stashes:
		return snap.Stashes
	case state.Tags:
		return snap.Tags
	}
	return nil
}
