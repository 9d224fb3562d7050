// Package library resolves the canonical deduplicated set of owned products.
//
// # Strategy tiers
//
// [Resolver.Resolve] takes a [Strategy] deciding how much remote state to
// re-fetch versus reuse from the persisted snapshot:
//
//   - [StrategyFetch] : full refresh (order list, every order, trove catalog)
//   - [StrategyCache] : rebuild purely from the persisted snapshot, no network
//   - [StrategyOptimized] : cache baseline plus selective refresh of the
//     subsets likely to have changed (new orders, unrevealed keys, newly
//     active trove entitlement)
//
// Full resolves stay necessary for correctness: incremental signals cannot
// see manual account changes, so hosts should periodically run
// [StrategyFetch] even when [StrategyOptimized] is available.
//
// # Snapshot persistence
//
// On every successful resolve the raw snapshot (orders, trove catalog,
// subscription flag) is serialized to the cache store and flushed before the
// call returns. A malformed snapshot is never surfaced: the next cache-tier
// resolve silently falls back to a full fetch and rewrites it.
//
// # Ownership filters
//
// [Settings] holds the user-tunable filters deciding which catalog records
// count as owned. The reconciliation loop snapshot-compares them across
// cycles; a change triggers a cache-tier re-resolve and a minimal add/remove
// diff against the previous owned set.
package library
