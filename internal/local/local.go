// Package local discovers installed games and tracks their run state.
//
// Detection is deliberately simple: games are matched by normalized title
// against directory names under the configured search dirs. Run state is
// observed for processes this engine launched; games started outside it show
// as installed. Hosts with richer scanners supply their own [AppFinder].
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// AppFinder reports which owned products are installed locally. Refresh
// rescans the machine; FindLocalGames enumerates installs restricted to the
// given owned set.
type AppFinder interface {
	Refresh() error
	FindLocalGames(ctx context.Context, owned []models.HumbleGame) ([]models.LocalGame, error)
}

// InstalledApp implements models.LocalGame for a game found on disk.
type InstalledApp struct {
	id          string
	dir         string
	executable  string
	uninstaller string
	logger      *log.Logger

	mu      sync.Mutex
	proc    *exec.Cmd
	running bool
}

// NewInstalledApp creates a local game handle. executable may be empty when
// discovery found the directory but no launchable binary.
func NewInstalledApp(id, dir, executable, uninstaller string, logger *log.Logger) *InstalledApp {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &InstalledApp{
		id:          id,
		dir:         dir,
		executable:  executable,
		uninstaller: uninstaller,
		logger:      logger,
	}
}

func (a *InstalledApp) ID() string { return a.id }

// State reports running while a process launched through Run is alive,
// installed otherwise.
func (a *InstalledApp) State() models.GameState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return models.StateRunning
	}
	return models.StateInstalled
}

// Run launches the game binary and tracks its lifetime.
func (a *InstalledApp) Run(ctx context.Context) error {
	if a.executable == "" {
		return fmt.Errorf("%w: no executable for %s", shared.ErrDownloadNotFound, a.id)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, a.executable)
	cmd.Dir = a.dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", a.id, err)
	}

	a.proc = cmd
	a.running = true
	go func() {
		err := cmd.Wait()
		a.mu.Lock()
		a.running = false
		a.proc = nil
		a.mu.Unlock()
		if err != nil {
			a.logger.Debug("game process exited", "id", a.id, "err", err)
		}
	}()

	return nil
}

// Uninstall runs the game's uninstaller if one was discovered.
func (a *InstalledApp) Uninstall(ctx context.Context) error {
	if a.uninstaller == "" {
		return fmt.Errorf("%w: no uninstaller for %s", shared.ErrDownloadNotFound, a.id)
	}

	cmd := exec.CommandContext(ctx, a.uninstaller)
	cmd.Dir = a.dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to run uninstaller for %s: %w", a.id, err)
	}
	return nil
}

// DirFinder implements AppFinder by scanning configured directories for
// subdirectories whose names match owned game titles.
type DirFinder struct {
	searchDirs []string
	logger     *log.Logger

	mu    sync.Mutex
	index map[string]string // normalized dir name -> absolute path
	apps  map[string]*InstalledApp
}

// NewDirFinder creates a finder over the given search directories.
func NewDirFinder(searchDirs []string, logger *log.Logger) *DirFinder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DirFinder{
		searchDirs: searchDirs,
		logger:     logger,
		index:      make(map[string]string),
		apps:       make(map[string]*InstalledApp),
	}
}

// Refresh rebuilds the directory index.
func (f *DirFinder) Refresh() error {
	index := make(map[string]string)

	for _, dir := range f.searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			index[shared.NormalizeTitle(entry.Name())] = filepath.Join(dir, entry.Name())
		}
	}

	f.mu.Lock()
	f.index = index
	f.mu.Unlock()
	return nil
}

// FindLocalGames matches owned products against the directory index. Handles
// are reused across scans so run-state tracking survives a rescan.
func (f *DirFinder) FindLocalGames(ctx context.Context, owned []models.HumbleGame) ([]models.LocalGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found []models.LocalGame
	for _, game := range owned {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		dir, ok := f.index[shared.NormalizeTitle(game.HumanName())]
		if !ok {
			continue
		}

		if app, ok := f.apps[game.MachineName()]; ok && app.dir == dir {
			found = append(found, app)
			continue
		}

		executable, uninstaller := probeBinaries(dir)
		app := NewInstalledApp(game.MachineName(), dir, executable, uninstaller, f.logger)
		f.apps[game.MachineName()] = app
		found = append(found, app)
	}

	return found, nil
}

// probeBinaries picks a launch binary and an uninstaller from a game
// directory. Heuristic only; empty results are valid.
func probeBinaries(dir string) (executable, uninstaller string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		path := filepath.Join(dir, entry.Name())

		if strings.HasPrefix(name, "uninstall") {
			uninstaller = path
			continue
		}
		if executable != "" {
			continue
		}

		if runtime.GOOS == "windows" {
			if strings.HasSuffix(name, ".exe") {
				executable = path
			}
			continue
		}

		if info, err := entry.Info(); err == nil && info.Mode()&0111 != 0 {
			executable = path
		}
	}

	return executable, uninstaller
}
