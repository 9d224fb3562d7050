package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"humblesync/internal/formatter"
	"humblesync/internal/services"
	"humblesync/internal/shared"
)

// BackupOpts contains configuration for full-library backups.
type BackupOpts struct {
	Format       string  // Export format: json, csv, markdown, txt
	OutputDir    string  // Base output directory (default: humble_backup_{epoch})
	NumWorkers   int     // Concurrent export workers (default: 5)
	RateLimit    float64 // Catalog requests per second (default: 5)
	IncludeTrove bool    // Also dump the trove catalog
}

// Backup exports every order in the account concurrently with rate limiting
// and progress tracking.
//
// This method implements a worker pool pattern: order fetches are serialized
// behind a rate limiter while file writes run on the workers. Partial
// failures are collected per order, and a manifest file summarizes the run.
func (e *LibraryEngine) Backup(ctx context.Context, prog chan<- ProgressUpdate, opts BackupOpts) (*BackupResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrRemoteUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("humble_backup_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	gamekeys, err := e.api.GetOrderList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := &BackupResult{
		TotalOrders:     len(gamekeys),
		OutputDirectory: opts.OutputDir,
		Results:         make([]OrderExportResult, 0, len(gamekeys)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan OrderExportJob, len(gamekeys))
	results := make(chan OrderExportResult, len(gamekeys))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		for i, gamekey := range gamekeys {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			e.sendProgress(prog, fetchOrdersUpdate(i+1, len(gamekeys)))

			order, err := e.api.GetOrder(ctx, gamekey)
			if err != nil {
				results <- OrderExportResult{
					GameKey: gamekey,
					Name:    fmt.Sprintf("Unknown (%s)", gamekey),
					Success: false,
					Error:   fmt.Errorf("failed to fetch order: %w", err),
				}
				continue
			}

			jobs <- OrderExportJob{GameKey: gamekey, Order: order}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(gamekeys), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(gamekeys), res.Name, res.Error))
		}
	}

	if opts.IncludeTrove {
		count, err := e.dumpTrove(ctx, prog, opts.OutputDir)
		if err != nil {
			return result, fmt.Errorf("orders exported but trove dump failed: %w", err)
		}
		result.TroveEntries = count
	}

	manifestPath := filepath.Join(opts.OutputDir, "backup_manifest.json")
	if err := e.writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("backup completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports orders from the jobs channel.
func (e *LibraryEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan OrderExportJob,
	results chan<- OrderExportResult,
	opts BackupOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportSingleOrder(job, opts)
	}
}

// exportSingleOrder exports a single order to the appropriate format.
func exportSingleOrder(j OrderExportJob, opts BackupOpts) OrderExportResult {
	result := OrderExportResult{
		GameKey: j.GameKey,
		Name:    j.Order.Product.HumanName,
		Success: false,
		Files:   []string{},
	}

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, j.GameKey)
		csvRes, err := formatter.WriteCSVExport(j.Order, baseFilepath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.ContentsFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, j.GameKey)
		mdRes, err := formatter.WriteMarkdownExport(j.Order, outputDir)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_contents.txt", j.GameKey))
		written, err := formatter.WriteTextExport(j.Order, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", j.GameKey))
		data, err := shared.MarshalJSON(j.Order, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}

// dumpTrove paginates the full trove catalog into troves.json.
func (e *LibraryEngine) dumpTrove(ctx context.Context, prog chan<- ProgressUpdate, outputDir string) (int, error) {
	var all []any
	for page := 0; ; page++ {
		e.sendProgress(prog, fetchTroveUpdate(page))

		chunk, err := e.api.GetTrovePage(ctx, page)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch trove page %d: %w", page, err)
		}
		for _, entry := range chunk {
			all = append(all, entry)
		}
		if len(chunk) < services.TrovePageSize {
			break
		}
	}

	data, err := shared.MarshalJSON(all, true)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trove catalog: %w", err)
	}
	path := filepath.Join(outputDir, "troves.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write trove catalog: %w", err)
	}
	return len(all), nil
}

// writeManifest summarizes the run next to the exported files. Errors are
// flattened to strings so the manifest is plain JSON.
func (e *LibraryEngine) writeManifest(result *BackupResult, format string, path string) error {
	type manifestEntry struct {
		GameKey string   `json:"gamekey"`
		Name    string   `json:"name"`
		Success bool     `json:"success"`
		Files   []string `json:"files,omitempty"`
		Error   string   `json:"error,omitempty"`
	}

	manifest := struct {
		CreatedAt    string          `json:"created_at"`
		Format       string          `json:"format"`
		TotalOrders  int             `json:"total_orders"`
		Successful   int             `json:"successful"`
		Failed       int             `json:"failed"`
		TroveEntries int             `json:"trove_entries,omitempty"`
		Orders       []manifestEntry `json:"orders"`
	}{
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Format:       format,
		TotalOrders:  result.TotalOrders,
		Successful:   result.SuccessfulExports,
		Failed:       result.FailedExports,
		TroveEntries: result.TroveEntries,
		Orders:       make([]manifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := manifestEntry{
			GameKey: res.GameKey,
			Name:    res.Name,
			Success: res.Success,
			Files:   res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Orders = append(manifest.Orders, entry)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
