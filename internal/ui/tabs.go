package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/state"
)

// span is a run of text drawn in one role color. An empty role uses the
// plain text color.
type span struct {
	text string
	role string
}

// row is one selectable line of a tab. key identifies the entry for actions:
// a path, branch name or stash index.
type row struct {
	key   string
	spans []span
}

func (r row) plain() string {
	parts := make([]string, 0, len(r.spans))
	for _, s := range r.spans {
		parts = append(parts, s.text)
	}
	return strings.Join(parts, " ")
}

// tabRows builds the list a tab shows for the given snapshot.
func tabRows(tab Tab, snap state.Snapshot) []row {
	switch tab {
	case TabStatus:
		return fileRows(snap.Status.Unstaged())
	case TabStaged:
		return fileRows(snap.Status.Staged())
	case TabCommits:
		return commitRows(snap.Commits)
	case TabBranches:
		return branchRows(snap.LocalBranches)
	case TabRemotes:
		return remoteRows(snap.RemoteBranches)
	case TabTags:
		return tagRows(snap.Tags)
	case TabStashes:
		return stashRows(snap.Stashes)
	case TabReflog:
		return reflogRows(snap.Reflog)
	}
	return nil
}

// emptyText is shown when a tab has no rows.
func emptyText(tab Tab, snap state.Snapshot) string {
	for _, k := range tab.Kinds().Kinds() {
		if !snap.Loaded(k) && !snap.Of(k).Stale {
			return "Loading..."
		}
	}
	switch tab {
	case TabStatus:
		return "Working tree clean"
	case TabStaged:
		return "Nothing staged"
	case TabCommits:
		return "No commits yet"
	case TabBranches, TabRemotes:
		return "No branches"
	case TabTags:
		return "No tags"
	case TabStashes:
		return "No stashes"
	case TabReflog:
		return "Reflog is empty"
	}
	return ""
}

func fileRows(files []git.FileStatus) []row {
	rows := make([]row, 0, len(files))
	for _, f := range files {
		path := f.Path
		if f.OrigPath != "" {
			path = f.OrigPath + " -> " + f.Path
		}
		rows = append(rows, row{
			key:   f.Path,
			spans: []span{{text: f.Code(), role: fileRole(f)}, {text: path}},
		})
	}
	return rows
}

func fileRole(f git.FileStatus) string {
	switch {
	case f.Conflicted:
		return "conflicted"
	case f.Untracked:
		return "untracked"
	case f.IsStaged() && !f.IsUnstaged():
		return "staged"
	}
	return "unstaged"
}

func commitRows(commits []git.Commit) []row {
	rows := make([]row, 0, len(commits))
	for _, c := range commits {
		spans := []span{{text: c.ShortHash, role: "hash"}}
		if len(c.Refs) > 0 {
			spans = append(spans, span{text: "(" + strings.Join(c.Refs, ", ") + ")", role: "refs"})
		}
		spans = append(spans, span{text: c.Subject}, span{text: c.Author, role: "muted"})
		rows = append(rows, row{key: c.Hash, spans: spans})
	}
	return rows
}

func branchRows(branches []git.Branch) []row {
	rows := make([]row, 0, len(branches))
	for _, b := range branches {
		marker, role := " ", ""
		if b.Current {
			marker, role = "*", "current"
		}
		spans := []span{{text: marker, role: role}, {text: b.Name, role: role}}
		if track := trackLabel(b); track != "" {
			spans = append(spans, span{text: track, role: "remote"})
		}
		spans = append(spans, span{text: b.Subject, role: "muted"})
		rows = append(rows, row{key: b.Name, spans: spans})
	}
	return rows
}

func trackLabel(b git.Branch) string {
	switch {
	case b.UpstreamGone:
		return "[gone]"
	case b.Ahead > 0 && b.Behind > 0:
		return fmt.Sprintf("↑%d ↓%d", b.Ahead, b.Behind)
	case b.Ahead > 0:
		return fmt.Sprintf("↑%d", b.Ahead)
	case b.Behind > 0:
		return fmt.Sprintf("↓%d", b.Behind)
	}
	return ""
}

func remoteRows(branches []git.Branch) []row {
	rows := make([]row, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, row{
			key:   b.Name,
			spans: []span{{text: b.Name, role: "remote"}, {text: b.Subject, role: "muted"}},
		})
	}
	return rows
}

func tagRows(tags []git.Tag) []row {
	rows := make([]row, 0, len(tags))
	for _, t := range tags {
		spans := []span{{text: t.Name, role: "tag"}, {text: shortHash(t.Hash), role: "hash"}}
		if t.Subject != "" {
			spans = append(spans, span{text: t.Subject, role: "muted"})
		}
		rows = append(rows, row{key: t.Name, spans: spans})
	}
	return rows
}

func stashRows(stashes []git.Stash) []row {
	rows := make([]row, 0, len(stashes))
	for _, s := range stashes {
		rows = append(rows, row{
			key:   strconv.Itoa(s.Index),
			spans: []span{{text: fmt.Sprintf("stash@{%d}", s.Index), role: "hash"}, {text: s.Message}},
		})
	}
	return rows
}

func reflogRows(entries []git.ReflogEntry) []row {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{
			key: e.Hash,
			spans: []span{
				{text: e.ShortHash, role: "hash"},
				{text: e.Selector, role: "muted"},
				{text: e.Action + ":", role: "refs"},
				{text: e.Message},
			},
		})
	}
	return rows
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// staleError returns the first fetch error among the tab's kinds, or nil when
// every kind is fresh.
func staleError(tab Tab, snap state.Snapshot) error {
	for _, k := range tab.Kinds().Kinds() {
		if m := snap.Of(k); m.Stale {
			if m.Err != nil {
				return m.Err
			}
			return fmt.Errorf("%s refresh failed", k)
		}
	}
	return nil
}
