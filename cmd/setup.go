package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"humblesync/internal/shared"
)

// SetupDatabase prepares the local library cache: it ensures a config file
// exists, opens the sqlite database, and applies the cache schema.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadOrCreateConfig(configPath)

	r.logger.Info("initializing library cache", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Library cache ready at %s\n", config.Database.Path)
	if len(config.Installed.SearchDirs) == 0 {
		r.writePlain("No install search directories configured; edit [installed] in %s\n", configPath)
	}
	r.writePlain("Next: humblesync auth login\n")
	return nil
}

// loadOrCreateConfig loads the config at path, writing the embedded template
// first if no file exists yet. Falls back to defaults rather than failing so
// setup always completes.
func (r *Runner) loadOrCreateConfig(path string) *shared.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
		r.logger.Info("config file created", "path", path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}
