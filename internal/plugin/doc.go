// Package plugin implements the host-facing session: the reconciliation
// scheduler, the download dispatcher, and the status tracker.
//
// # Session
//
// [Session] is the explicit context object holding all per-session state
// (owned library, local games, game-state cache, in-flight installs) together
// with its collaborators. Hosts construct one per account and drive it through
// the lifecycle operations: Authenticate, GetOwnedGames, GetLocalGames,
// InstallGame, LaunchGame, UninstallGame, Tick, Shutdown. Every operation
// tolerates interleaving with in-progress background tasks.
//
// # Scheduler
//
// [Session.Tick] is the cooperative driver: it never blocks and never queues.
// Each of the three background tasks (ownership refresh, install rescan,
// status polling) owns a slot that is either idle or running; a tick starts a
// fresh goroutine for every idle slot and skips running ones. The ownership
// slot additionally yields to a foreground GetOwnedGames call. A task that
// fails internally logs, does nothing else, and frees its slot, so the next
// tick retries naturally.
//
// # Dispatching
//
// [Dispatcher] maps each owned-product variant to its acquisition flow: keys
// go to the external reveal helper, subproducts to a browser download, trove
// entries to a signed-URL request with a deliberate downgrade to the
// subscription page when the monthly entitlement has lapsed. Session-level
// bookkeeping guarantees at most one concurrent dispatch per machine name; a
// duplicate request is a silent no-op.
package plugin
