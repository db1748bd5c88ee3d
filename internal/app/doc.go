// Package app is the composition root for slayergit.
//
// # Overview
//
// It wires configuration, logging, the git backend, the snapshot store, the
// observer registry and the refresh coordinator, then hands them to either
// the TUI (Run) or a one-shot headless cycle (RunRefresh).
//
// # Startup
//
//  1. Load ~/.config/slayergit/config.toml and apply flag overrides
//  2. Configure logging (never to stderr while the TUI owns the terminal)
//  3. Open the repository through the git CLI backend
//  4. Create the store and registry, start the coordinator loop
//  5. Start the .git watcher and, when poll_interval > 0, the poller
//  6. Run the UI, which subscribes its observers and triggers the first
//     full refresh
//
// # Data Flow
//
//	watcher / poller / keys ──Trigger──> Coordinator ──fetch──> git CLI
//	                                          │
//	                                    Store.Write / MarkFailed
//	                                          │
//	                                  Registry.Notify ──> UI observers
//
// # Poller
//
// StartPoller refreshes every kind on a fixed interval. While cycles keep
// failing it doubles the wait per consecutive failure, capped at 30s, and
// drops back to the base interval after the first clean cycle.
//
// Shutdown cancels the shared context, waits for the coordinator loop to
// finish its current cycle and closes the log file.
package app
