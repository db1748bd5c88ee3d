// Package state holds the in-memory mirror of the repository shown by the UI.
//
// # Kinds
//
// The mirror is split into seven independently fetched kinds (Status,
// LocalBranches, RemoteBranches, Commits, Reflog, Stashes, Tags). KindSet is a
// small bitmask over them used for refresh requests, change notifications and
// observer subscriptions.
//
// # Store
//
// Store keeps one Record per kind:
//
//	Value      last successfully fetched payload (typed per kind)
//	Version    incremented on every successful Write
//	Stale/Err  set by MarkFailed, cleared by the next Write
//	UpdatedAt  time of the last successful Write
//
// A failed fetch never clears a value; the UI keeps rendering the previous
// data with a stale marker. Every Write and MarkFailed takes the store's lock
// for the duration of the assignment only, never across a fetch.
//
// Readers get copies. Read clones the payload for one kind and Snapshot
// clones everything under a single read lock, so a reader never observes a
// half-applied cycle for a given kind.
//
// # Busy state
//
// Tracker is the Idle -> Loading -> Idle machine driven by the refresh
// coordinator. It is only moved back to Idle once every fetch of the cycle has
// settled and been written, so "not busy" means the store is current as of
// LastDuration ago.
//
//	store := state.NewStore()
//	start := store.Busy().Begin()
//	_ = store.Write(state.Status, status)
//	store.MarkFailed(state.Tags, err)
//	store.Busy().End()
//	snap := store.Snapshot() // snap.Busy == false
package state
