// Package ui provides the Bubble Tea terminal interface for slayergit.
//
// # Layout
//
// Three windows share the screen, each holding tabs:
//
//   - 1 Files: Status (unstaged and untracked), Staged
//   - 2 History: Commits, Branches, Remotes, Tags
//   - 3 Stash & Reflog: Stashes, Reflog, Log
//
// A one-line status bar at the bottom shows the branch, a spinner with the
// elapsed time while a refresh cycle runs, the last cycle summary and key
// hints. Number keys focus a window; pressing the focused window's number
// cycles its tabs.
//
// # Data flow
//
// The model never fetches. Each data tab subscribes to the refresh registry
// for the kinds it renders, and a status bar observer subscribes to all of
// them. Observers run on the coordinator goroutine and only forward a message
// into the program with Program.Send. On the UI loop a tab message reads just
// that tab's kinds from the store, records its failures and rebuilds its rows;
// the status bar message copies a full snapshot and rebuilds only the tabs
// whose kinds moved. Kinds whose last fetch failed keep their previous rows
// and show a "stale" badge with the error.
//
// Mutating keys (stage, commit, checkout, stash) run the git command in a
// tea.Cmd and then trigger a targeted refresh of the kinds the command can
// change.
//
// # Files
//
//   - app.go: Model, Update loop, key handling, messages and commands
//   - layout.go: windows, tabs and focus
//   - tabs.go: rows each tab renders from a snapshot
//   - render.go, statusbar.go, help.go: views
//   - observers.go: registry subscriptions and per-tab panel state
//   - theme.go, keys.go: palettes and key bindings
package ui
