package ui

import (
	"errors"
	"testing"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/state"
)

func TestTabRows_SplitsStatusAndStaged(t *testing.T) {
	snap := state.Snapshot{Status: git.Status{Files: []git.FileStatus{
		{Path: "both.go", Index: 'M', Worktree: 'M'},
		{Path: "new.txt", Untracked: true},
		{Path: "staged.go", Index: 'A', Worktree: '.'},
		{Path: "new.go", OrigPath: "old.go", Index: 'R', Worktree: '.'},
	}}}

	status := tabRows(TabStatus, snap)
	if len(status) != 2 || status[0].key != "both.go" || status[1].key != "new.txt" {
		t.Fatalf("status rows = %+v", status)
	}
	if status[1].spans[0].role != "untracked" || status[0].spans[0].role != "unstaged" {
		t.Fatalf("roles = %q, %q", status[0].spans[0].role, status[1].spans[0].role)
	}

	staged := tabRows(TabStaged, snap)
	if len(staged) != 3 {
		t.Fatalf("staged rows = %d, want 3", len(staged))
	}
	if got := staged[2].plain(); got != "R  old.go -> new.go" {
		t.Fatalf("rename row = %q", got)
	}
	if staged[2].key != "new.go" {
		t.Fatalf("rename key = %q, want new.go", staged[2].key)
	}
}

func TestTabRows_Branches(t *testing.T) {
	snap := state.Snapshot{LocalBranches: []git.Branch{
		{Name: "main", Current: true, Subject: "init"},
		{Name: "topic", Ahead: 1, Behind: 2, Subject: "wip"},
		{Name: "old", UpstreamGone: true},
	}}
	rows := tabRows(TabBranches, snap)
	want := []string{"* main init", "  topic ↑1 ↓2 wip", "  old [gone] "}
	for i, w := range want {
		if got := rows[i].plain(); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestTabRows_StashKeysAreIndexes(t *testing.T) {
	snap := state.Snapshot{Stashes: []git.Stash{{Index: 0, Message: "a"}, {Index: 1, Message: "b"}}}
	rows := tabRows(TabStashes, snap)
	if rows[1].key != "1" || rows[1].plain() != "stash@{1} b" {
		t.Fatalf("row = %+v", rows[1])
	}
}

func TestEmptyText(t *testing.T) {
	var snap state.Snapshot
	if got := emptyText(TabTags, snap); got != "Loading..." {
		t.Fatalf("emptyText before first load = %q", got)
	}
	snap.Meta[state.Tags].Version = 1
	if got := emptyText(TabTags, snap); got != "No tags" {
		t.Fatalf("emptyText after load = %q", got)
	}

	// A kind that failed before ever loading is not "loading".
	var failed state.Snapshot
	failed.Meta[state.Stashes].Stale = true
	if got := emptyText(TabStashes, failed); got != "No stashes" {
		t.Fatalf("emptyText for failed kind = %q", got)
	}
}

func TestStaleError(t *testing.T) {
	var snap state.Snapshot
	if err := staleError(TabCommits, snap); err != nil {
		t.Fatalf("fresh kind reported %v", err)
	}
	snap.Meta[state.Commits] = state.Meta{Stale: true, Err: errors.New("boom")}
	if err := staleError(TabCommits, snap); err == nil || err.Error() != "boom" {
		t.Fatalf("staleError = %v, want boom", err)
	}
	snap.Meta[state.Reflog] = state.Meta{Stale: true}
	if err := staleError(TabReflog, snap); err == nil || err.Error() != "reflog refresh failed" {
		t.Fatalf("staleError without cause = %v", err)
	}
	if err := staleError(TabLog, snap); err != nil {
		t.Fatalf("Log tab reported %v", err)
	}
}
