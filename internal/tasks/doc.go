// Package tasks orchestrates bulk catalog operations with real-time progress reporting.
//
// # Core Operations
//
// The [BackupEngine] interface defines the long-running operations:
//
//  1. [BackupEngine.Backup] : Full library backup to disk
//     - Fetches every order in the account
//     - Exports each order concurrently through a worker pool (JSON, CSV, Markdown, or text)
//     - Optionally dumps the trove catalog alongside the orders
//     - Writes a manifest summarizing successes and failures
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [LibraryEngine] implements [BackupEngine] with a dependency on
// [services.CatalogService], rate-limiting its catalog requests independently
// of the client's own limiter so a backup cannot starve the sync engine.
package tasks
