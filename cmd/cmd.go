// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Humble Bundle authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store credentials from a browser session",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "cookies",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the stored session against the catalog",
				Action: r.AuthStatus,
			},
		},
	}
}

// libraryCommand handles owned-library operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Owned library operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List owned games, keys, and trove entries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Resolution tier (fetch, cache, or optimized)",
						Value:   "fetch",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "backup",
				Usage: "Export every order to disk with a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, or txt)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: humble_backup_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Catalog requests per second",
						Value: 5.0,
					},
					&cli.BoolFlag{
						Name:  "trove",
						Usage: "Also dump the trove catalog",
					},
				},
				Action: r.LibraryBackup,
			},
		},
	}
}

// localsCommand lists games installed on this machine
func localsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "locals",
		Usage: "List installed games found in the configured search directories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Locals,
	}
}

// gameCommand handles per-game operations
func gameCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "game",
		Usage: "Install, launch, or uninstall a single game",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Run the acquisition flow for an owned product",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.GameInstall,
			},
			{
				Name:  "launch",
				Usage: "Launch an installed game",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.GameLaunch,
			},
			{
				Name:  "uninstall",
				Usage: "Run an installed game's uninstaller",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.GameUninstall,
			},
		},
	}
}

// runCommand drives the background reconciliation loop
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the sync loop until interrupted",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "interval",
				Usage: "Tick interval in milliseconds (overrides config)",
			},
		},
		Action: r.Run,
	}
}

// cacheCommand inspects and manages the persistent library cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the persistent library cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the cached library snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent cache migration",
				Action: r.CacheRollback,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing the library",
		Action:  r.TUI,
	}
}
