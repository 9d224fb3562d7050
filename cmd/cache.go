package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"humblesync/internal/repositories"
	"humblesync/internal/shared"
)

// CacheShow prints the persisted library snapshot.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repositories.NewCacheRepository(db)
	raw, ok, err := store.Get("library")
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if !ok {
		return r.writePlain("Cache is empty. Run 'humblesync library list' to populate it.\n")
	}

	if !cmd.Bool("pretty") {
		return r.writePlain("%s\n", raw)
	}

	var snapshot any
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		r.logger.Warn("cached snapshot is not valid JSON, printing raw", "err", err)
		return r.writePlain("%s\n", raw)
	}
	return r.writeJSON(snapshot, true)
}

// CacheRollback rolls back the most recent cache migration.
func (r *Runner) CacheRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	r.logger.Info("rolling back most recent migration")
	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	return r.writePlain("✓ Rollback complete\n")
}
