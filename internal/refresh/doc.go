// Package refresh keeps the state.Store in sync with the repository.
//
// A Coordinator owns one loop goroutine. Each request becomes a cycle:
//
//	busy -> fetch every requested kind concurrently (bounded by MaxParallel)
//	     -> write each result into the store as it arrives
//	     -> join on all fetches -> idle -> notify observers -> complete handle
//
// Cycles never overlap. A request that arrives while a cycle is running is
// queued behind it (Refresh, RefreshAsync, Trigger) or rejected with
// REFRESH_CONFLICT (TryRefresh). Because only the loop goroutine writes to the
// store, a fetch that outlived its cycle (see Options.FetchTimeout) can never
// overwrite a newer value.
//
// Observers subscribe to a KindSet and are called, in registration order,
// with the part of each outcome that concerns them. A failing or panicking
// observer is logged and skipped.
package refresh
