package ui

import "github.com/five82/slayergit/internal/state"

// Tab identifies one view inside a window.
type Tab int

const (
	TabStatus Tab = iota
	TabStaged
	TabCommits
	TabBranches
	TabRemotes
	TabTags
	TabStashes
	TabReflog
	TabLog
	numTabs
)

var tabTitles = [numTabs]string{
	TabStatus:   "Status",
	TabStaged:   "Staged",
	TabCommits:  "Commits",
	TabBranches: "Branches",
	TabRemotes:  "Remotes",
	TabTags:     "Tags",
	TabStashes:  "Stashes",
	TabReflog:   "Reflog",
	TabLog:      "Log",
}

// tabKinds is what each tab renders; the tab's observer subscribes to exactly
// these kinds. The Log tab reads the application log, not the store.
var tabKinds = [numTabs]state.KindSet{
	TabStatus:   state.NewKindSet(state.Status),
	TabStaged:   state.NewKindSet(state.Status),
	TabCommits:  state.NewKindSet(state.Commits),
	TabBranches: state.NewKindSet(state.LocalBranches),
	TabRemotes:  state.NewKindSet(state.RemoteBranches),
	TabTags:     state.NewKindSet(state.Tags),
	TabStashes:  state.NewKindSet(state.Stashes),
	TabReflog:   state.NewKindSet(state.Reflog),
}

func (t Tab) String() string {
	if t < 0 || t >= numTabs {
		return "unknown"
	}
	return tabTitles[t]
}

// Kinds returns the data kinds the tab renders.
func (t Tab) Kinds() state.KindSet {
	if t < 0 || t >= numTabs {
		return 0
	}
	return tabKinds[t]
}

type window struct {
	title  string
	tabs   []Tab
	active int
}

// layout tracks which window has focus and which tab each window shows.
type layout struct {
	windows []window
	focused int
}

func defaultLayout() layout {
	return layout{
		windows: []window{
			{title: "Files", tabs: []Tab{TabStatus, TabStaged}},
			{title: "History", tabs: []Tab{TabCommits, TabBranches, TabRemotes, TabTags}},
			{title: "Stash & Reflog", tabs: []Tab{TabStashes, TabReflog, TabLog}},
		},
	}
}

// FocusWindow focuses the 1-based window n. Selecting the window that already
// has focus cycles its tabs instead. Out-of-range numbers are ignored.
func (l *layout) FocusWindow(n int) {
	idx := n - 1
	if idx < 0 || idx >= len(l.windows) {
		return
	}
	if idx == l.focused {
		l.NextTab()
		return
	}
	l.focused = idx
}

func (l *layout) NextWindow() {
	l.focused = (l.focused + 1) % len(l.windows)
}

func (l *layout) PrevWindow() {
	l.focused = (l.focused - 1 + len(l.windows)) % len(l.windows)
}

func (l *layout) NextTab() {
	w := &l.windows[l.focused]
	w.active = (w.active + 1) % len(w.tabs)
}

func (l *layout) PrevTab() {
	w := &l.windows[l.focused]
	w.active = (w.active - 1 + len(w.tabs)) % len(w.tabs)
}

// Focused returns the 1-based number of the focused window.
func (l layout) Focused() int {
	return l.focused + 1
}

// ActiveTab is the visible tab of the focused window.
func (l layout) ActiveTab() Tab {
	return l.windows[l.focused].activeTab()
}

// Visible reports whether t is the shown tab of any window.
func (l layout) Visible(t Tab) bool {
	for _, w := range l.windows {
		if w.activeTab() == t {
			return true
		}
	}
	return false
}

func (w window) activeTab() Tab {
	return w.tabs[w.active]
}
