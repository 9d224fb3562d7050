package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"humblesync/internal/library"
	"humblesync/internal/local"
	"humblesync/internal/plugin"
	"humblesync/internal/repositories"
	"humblesync/internal/services"
	"humblesync/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.CatalogService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.CatalogService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, localsCommand, gameCommand, runCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, used when the TUI owns stderr.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// catalog returns the shared catalog client, creating the production one on
// first use.
func (r *Runner) catalog() services.CatalogService {
	if r.api == nil {
		r.api = services.NewHumbleService("", r.httpClient, 0)
	}
	return r.api
}

// revealer picks the key presentation: an external helper when one is
// configured, plain terminal output otherwise.
func (r *Runner) revealer() plugin.KeyRevealer {
	if r.config.Sync.KeyHelper != "" {
		return plugin.NewHelperKeyRevealer(r.config.Sync.KeyHelper, r.logger)
	}
	return &printKeyRevealer{output: r.output}
}

// openSession wires the full engine: catalog client, persistent cache,
// library resolver, install scanner, dispatcher, and session. The returned
// cleanup releases everything in reverse order.
func (r *Runner) openSession(ctx context.Context, authenticate bool) (*plugin.Session, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repositories.NewCacheRepository(db)
	settings := library.NewSettings(r.configPath, library.FiltersFromConfig(r.config.Library), r.logger)
	resolver := library.NewResolver(r.catalog(), store, settings, r.logger)
	finder := local.NewDirFinder(r.config.Installed.SearchDirs, r.logger)
	dispatcher := plugin.NewDispatcher(r.catalog(), nil, r.revealer(), r.openURL, r.logger)

	session := plugin.NewSession(plugin.SessionOpts{
		API:        r.catalog(),
		Resolver:   resolver,
		Settings:   settings,
		Finder:     finder,
		Dispatcher: dispatcher,
		Logger:     r.logger,
	})

	cleanup := func() {
		session.Shutdown()
		if err := db.Close(); err != nil {
			r.logger.Debug("failed to close database", "err", err)
		}
	}

	if authenticate {
		if _, _, err := session.Authenticate(ctx, r.config.Credentials.SessionCookie); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return session, cleanup, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
