package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"humblesync/internal/library"
	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// printKeyRevealer writes a revealed key to the command output instead of
// handing it to an external helper.
type printKeyRevealer struct {
	output io.Writer
}

func (p *printKeyRevealer) Reveal(ctx context.Context, key models.Key) error {
	value := key.Data.RedeemedKeyVal
	if value == "" {
		value = "(not yet revealed, redeem on humblebundle.com)"
	}
	text := fmt.Sprintf("%s\n  type: %s\n  key:  %s\n", key.HumanName(), key.Data.KeyTypeHumanName, value)
	if _, err := p.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// GameInstall runs the acquisition flow for one owned product.
func (r *Runner) GameInstall(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: game id", shared.ErrMissingArgument)
	}

	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	// Prefer the cached library so a plain install does not refetch the world.
	if _, err := session.ResolveOwned(ctx, library.StrategyCache); err != nil {
		return fmt.Errorf("failed to resolve library: %w", err)
	}

	session.InstallGame(ctx, id)
	return nil
}

// GameLaunch launches an installed game.
func (r *Runner) GameLaunch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: game id", shared.ErrMissingArgument)
	}

	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := session.ResolveOwned(ctx, library.StrategyCache); err != nil {
		return fmt.Errorf("failed to resolve library: %w", err)
	}
	if _, err := session.GetLocalGames(ctx); err != nil {
		return fmt.Errorf("failed to scan for installed games: %w", err)
	}

	if err := session.LaunchGame(ctx, id); err != nil {
		return fmt.Errorf("failed to launch %s: %w", id, err)
	}
	return nil
}

// GameUninstall runs an installed game's uninstaller.
func (r *Runner) GameUninstall(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: game id", shared.ErrMissingArgument)
	}

	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := session.ResolveOwned(ctx, library.StrategyCache); err != nil {
		return fmt.Errorf("failed to resolve library: %w", err)
	}
	if _, err := session.GetLocalGames(ctx); err != nil {
		return fmt.Errorf("failed to scan for installed games: %w", err)
	}

	if err := session.UninstallGame(ctx, id); err != nil {
		return fmt.Errorf("failed to uninstall %s: %w", id, err)
	}
	return nil
}
