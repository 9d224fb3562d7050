package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"humblesync/internal/library"
	"humblesync/internal/models"
	"humblesync/internal/tasks"
)

// libraryRow is the JSON projection of one owned product.
type libraryRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// LibraryList resolves and prints the owned library under the chosen strategy tier.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	strategy, err := library.ParseStrategy(cmd.String("strategy"))
	if err != nil {
		return err
	}

	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	var games []models.HumbleGame
	if strategy == library.StrategyFetch {
		games, err = session.GetOwnedGames(ctx)
	} else {
		// The non-default tiers go through the resolver the background
		// tasks use, so the output matches what a sync cycle would see.
		games, err = session.ResolveOwned(ctx, strategy)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve library: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]libraryRow, len(games))
		for i, game := range games {
			rows[i] = libraryRow{ID: game.MachineName(), Name: game.HumanName(), Kind: string(game.Kind())}
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlain("Owned library (%d entries, %s tier)\n\n", len(games), strategy.String())
	for _, game := range games {
		r.writePlain("  %-12s %-40s %s\n", game.Kind(), game.HumanName(), game.MachineName())
	}
	return nil
}

// LibraryBackup exports every order in the account to disk.
func (r *Runner) LibraryBackup(ctx context.Context, cmd *cli.Command) error {
	api := r.catalog()
	if _, _, err := api.Authenticate(ctx, r.config.Credentials.SessionCookie); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	engine := tasks.NewLibraryEngine(api)

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlainln("%s", update.Message)
		}
	}()

	result, err := engine.Backup(ctx, progress, tasks.BackupOpts{
		Format:       cmd.String("format"),
		OutputDir:    cmd.String("out"),
		NumWorkers:   int(cmd.Int("workers")),
		RateLimit:    cmd.Float("rate"),
		IncludeTrove: cmd.Bool("trove"),
	})
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	r.writePlain("\nBackup complete: %d exported, %d failed", result.SuccessfulExports, result.FailedExports)
	if result.TroveEntries > 0 {
		r.writePlain(", %d trove entries", result.TroveEntries)
	}
	r.writePlain("\nManifest: %s\n", result.ManifestPath)
	return nil
}

// Locals scans the configured directories and prints installed games.
func (r *Runner) Locals(ctx context.Context, cmd *cli.Command) error {
	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	// The scanner only matches against owned titles, so resolve those first.
	if _, err := session.GetOwnedGames(ctx); err != nil {
		return fmt.Errorf("failed to resolve library: %w", err)
	}

	locals, err := session.GetLocalGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan for installed games: %w", err)
	}

	if cmd.Bool("json") {
		type localRow struct {
			ID    string `json:"id"`
			State string `json:"state"`
		}
		rows := make([]localRow, len(locals))
		for i, game := range locals {
			rows[i] = localRow{ID: game.ID(), State: game.State().String()}
		}
		return r.writeJSON(rows, true)
	}

	r.writePlain("Installed games (%d found)\n\n", len(locals))
	for _, game := range locals {
		r.writePlain("  %-40s %s\n", game.ID(), game.State().String())
	}
	return nil
}
