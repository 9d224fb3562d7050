// package tasks implements bulk catalog operations against the Humble Bundle API.
//
// The core abstraction is BackupEngine, which orchestrates full-library backups.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"

	"humblesync/internal/models"
	"humblesync/internal/services"
)

// OrderExportJob carries one fetched order to an export worker.
type OrderExportJob struct {
	GameKey string
	Order   *models.Order
}

// OrderExportResult represents the outcome of exporting a single order.
type OrderExportResult struct {
	GameKey string   // Order identifier
	Name    string   // Bundle human name
	Success bool     // Whether the export completed
	Files   []string // Files written for this order
	Error   error    // Error if the export failed
}

// BackupResult contains all data from a full backup operation.
type BackupResult struct {
	TotalOrders       int                 // Orders found in the account
	SuccessfulExports int                 // Orders written to disk
	FailedExports     int                 // Orders that failed to export
	TroveEntries      int                 // Trove catalog entries dumped (0 when skipped)
	OutputDirectory   string              // Where the backup was written
	ManifestPath      string              // Path of the manifest file
	Results           []OrderExportResult // Per-order outcomes
}

// BackupEngine defines bulk operations against the catalog.
type BackupEngine interface {
	// Backup exports every order in the account to disk, optionally with the
	// trove catalog, and writes a manifest summarizing the run.
	Backup(ctx context.Context, progress chan<- ProgressUpdate, opts BackupOpts) (*BackupResult, error)
}

// LibraryEngine implements BackupEngine against a catalog client.
type LibraryEngine struct {
	api services.CatalogService
}

// NewLibraryEngine creates a new LibraryEngine with the provided catalog client.
func NewLibraryEngine(api services.CatalogService) *LibraryEngine {
	return &LibraryEngine{api: api}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
