package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"humblesync/internal/models"
	"humblesync/internal/services"
	tu "humblesync/internal/testing"
)

// backupCatalog serves a fixed set of orders and trove pages.
type backupCatalog struct {
	orders     map[string]*models.Order
	failKeys   map[string]bool
	troves     []models.TroveData
	listErr    error
	orderCalls int
}

func (c *backupCatalog) Authenticate(ctx context.Context, cookie string) (string, string, error) {
	return "1", "tester", nil
}

func (c *backupCatalog) GetOrderList(ctx context.Context) ([]string, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	keys := make([]string, 0, len(c.orders))
	for key := range c.orders {
		keys = append(keys, key)
	}
	for key := range c.failKeys {
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *backupCatalog) GetOrder(ctx context.Context, gamekey string) (*models.Order, error) {
	c.orderCalls++
	if c.failKeys[gamekey] {
		return nil, errors.New("order fetch failed")
	}
	order, ok := c.orders[gamekey]
	if !ok {
		return nil, errors.New("unknown order")
	}
	return order, nil
}

func (c *backupCatalog) HadTroveSubscription(ctx context.Context) (bool, error) { return true, nil }

func (c *backupCatalog) GetTrovePage(ctx context.Context, page int) ([]models.TroveData, error) {
	start := page * services.TrovePageSize
	if start >= len(c.troves) {
		return nil, nil
	}
	end := start + services.TrovePageSize
	if end > len(c.troves) {
		end = len(c.troves)
	}
	return c.troves[start:end], nil
}

func (c *backupCatalog) GetTroveSignedURL(ctx context.Context, d models.TroveDownload, machineName string) (string, error) {
	return "", nil
}

func (c *backupCatalog) Close() error { return nil }

func backupOrder(gamekey, name string) *models.Order {
	return &models.Order{
		GameKey: gamekey,
		Product: models.OrderProduct{Category: "bundle", MachineName: gamekey, HumanName: name},
		TpkdDict: models.TpkdDict{AllTpks: []models.KeyData{
			{MachineName: gamekey + "_key", HumanName: name + " Key", KeyType: "steam", KeyTypeHumanName: "Steam"},
		}},
	}
}

func TestBackup(t *testing.T) {
	t.Run("exports all orders as JSON", func(t *testing.T) {
		catalog := &backupCatalog{orders: map[string]*models.Order{
			"aaa": backupOrder("aaa", "Bundle A"),
			"bbb": backupOrder("bbb", "Bundle B"),
		}}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		result, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: outDir})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.TotalOrders != 2 || result.SuccessfulExports != 2 || result.FailedExports != 0 {
			t.Errorf("unexpected counts: %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(outDir, "aaa.json"))
		tu.AssertFileExists(t, filepath.Join(outDir, "bbb.json"))
		tu.AssertFileExists(t, result.ManifestPath)

		manifest := tu.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(manifest, `"successful": 2`) {
			t.Errorf("expected manifest summary, got %s", manifest)
		}
	})

	t.Run("records per-order failures", func(t *testing.T) {
		catalog := &backupCatalog{
			orders:   map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")},
			failKeys: map[string]bool{"broken": true},
		}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		result, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: outDir})
		if err != nil {
			t.Fatalf("a failed order must not fail the run: %v", err)
		}
		if result.SuccessfulExports != 1 || result.FailedExports != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}

		manifest := tu.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(manifest, "order fetch failed") {
			t.Errorf("expected failure reason in manifest, got %s", manifest)
		}
	})

	t.Run("csv format writes contents and metadata", func(t *testing.T) {
		catalog := &backupCatalog{orders: map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")}}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		result, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: outDir, Format: "csv"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.SuccessfulExports != 1 {
			t.Fatalf("unexpected counts: %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(outDir, "aaa_contents.csv"))
		tu.AssertFileExists(t, filepath.Join(outDir, "aaa_metadata.json"))
	})

	t.Run("markdown format writes per-order directories", func(t *testing.T) {
		catalog := &backupCatalog{orders: map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")}}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		if _, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: outDir, Format: "markdown"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(outDir, "aaa", "README.md"))
	})

	t.Run("dumps trove catalog across pages", func(t *testing.T) {
		troves := make([]models.TroveData, services.TrovePageSize+3)
		for i := range troves {
			troves[i] = models.TroveData{MachineName: fmt.Sprintf("trove_%d", i)}
		}
		catalog := &backupCatalog{
			orders: map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")},
			troves: troves,
		}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		result, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: outDir, IncludeTrove: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TroveEntries != len(troves) {
			t.Errorf("expected %d trove entries, got %d", len(troves), result.TroveEntries)
		}
		tu.AssertFileExists(t, filepath.Join(outDir, "troves.json"))
	})

	t.Run("emits progress updates", func(t *testing.T) {
		catalog := &backupCatalog{orders: map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")}}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		progress := make(chan ProgressUpdate, 64)
		if _, err := engine.Backup(context.Background(), progress, BackupOpts{OutputDir: outDir}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 {
			t.Fatal("expected at least one progress update")
		}
	})

	t.Run("full channel never blocks", func(t *testing.T) {
		catalog := &backupCatalog{orders: map[string]*models.Order{
			"aaa": backupOrder("aaa", "Bundle A"),
			"bbb": backupOrder("bbb", "Bundle B"),
		}}
		engine := NewLibraryEngine(catalog)
		outDir := filepath.Join(t.TempDir(), "backup")

		// Unbuffered channel with no reader: every send must fall through.
		progress := make(chan ProgressUpdate)
		if _, err := engine.Backup(context.Background(), progress, BackupOpts{OutputDir: outDir}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("order list failure aborts", func(t *testing.T) {
		catalog := &backupCatalog{listErr: errors.New("remote down")}
		engine := NewLibraryEngine(catalog)

		if _, err := engine.Backup(context.Background(), nil, BackupOpts{OutputDir: t.TempDir()}); err == nil {
			t.Fatal("expected error when order list fails")
		}
	})

	t.Run("nil catalog errors", func(t *testing.T) {
		engine := NewLibraryEngine(nil)
		if _, err := engine.Backup(context.Background(), nil, BackupOpts{}); err == nil {
			t.Fatal("expected error for nil catalog")
		}
	})

	t.Run("default output directory is created", func(t *testing.T) {
		orig := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		defer tu.MustChdir(t, orig)

		catalog := &backupCatalog{orders: map[string]*models.Order{"aaa": backupOrder("aaa", "Bundle A")}}
		engine := NewLibraryEngine(catalog)

		result, err := engine.Backup(context.Background(), nil, BackupOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(result.OutputDirectory, "humble_backup_") {
			t.Errorf("expected generated directory name, got %s", result.OutputDirectory)
		}
		if _, err := os.Stat(result.OutputDirectory); err != nil {
			t.Errorf("expected output directory to exist: %v", err)
		}
	})
}
