package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

// Run drives the reconciliation loop: an initial full fetch and install scan,
// then a tick every interval until the process is interrupted. Each tick
// starts whichever background tasks are idle and returns immediately.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	session, cleanup, err := r.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	interval := time.Duration(r.config.Sync.TickIntervalMS) * time.Millisecond
	if override := cmd.Int("interval"); override > 0 {
		interval = time.Duration(override) * time.Millisecond
	}
	if interval <= 0 {
		interval = time.Second
	}

	r.logger.Info("starting sync loop", "interval", interval)

	games, err := session.GetOwnedGames(ctx)
	if err != nil {
		return fmt.Errorf("initial library fetch failed: %w", err)
	}
	r.logger.Info("library resolved", "owned", len(games))

	locals, err := session.GetLocalGames(ctx)
	if err != nil {
		return fmt.Errorf("initial install scan failed: %w", err)
	}
	r.logger.Info("install scan complete", "installed", len(locals))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			r.logger.Info("shutting down sync loop")
			return nil
		case <-ticker.C:
			session.Tick()
		}
	}
}
