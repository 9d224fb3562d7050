package library

import (
	"sync"

	"github.com/charmbracelet/log"

	"humblesync/internal/shared"
)

// Filters are the user-configurable ownership filters. The struct is plain
// value-comparable data so reconciliation cycles can detect changes with a
// single == comparison.
type Filters struct {
	TroveGames      bool
	KeysWithoutGame bool
	RevealedKeys    bool
	GameBundles     bool
	Software        bool
	Ebooks          bool
}

// FiltersFromConfig maps the TOML library section onto Filters.
func FiltersFromConfig(cfg shared.LibraryConfig) Filters {
	return Filters{
		TroveGames:      cfg.ShowTroveGames,
		KeysWithoutGame: cfg.ShowKeysWithoutGame,
		RevealedKeys:    cfg.ShowRevealedKeys,
		GameBundles:     cfg.ShowGameBundles,
		Software:        cfg.ShowSoftware,
		Ebooks:          cfg.ShowEbooks,
	}
}

// Settings tracks the current ownership filters and reloads them from the
// config file on demand. The config file is the user's to edit while the
// engine runs; the owned-refresh task polls it every cycle.
type Settings struct {
	configPath string
	logger     *log.Logger

	mu    sync.Mutex
	owned Filters
}

// NewSettings creates a Settings seeded with the given filters.
func NewSettings(configPath string, initial Filters, logger *log.Logger) *Settings {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Settings{
		configPath: configPath,
		owned:      initial,
		logger:     logger,
	}
}

// Owned returns the current filter snapshot.
func (s *Settings) Owned() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned
}

// ReloadIfChanged re-reads the config file and reports whether the ownership
// filters differ from the last-seen snapshot. A missing or malformed config
// file leaves the current filters untouched.
func (s *Settings) ReloadIfChanged() bool {
	if s.configPath == "" {
		return false
	}

	cfg, err := shared.LoadConfig(s.configPath)
	if err != nil {
		s.logger.Debug("config reload skipped", "err", err)
		return false
	}

	fresh := FiltersFromConfig(cfg.Library)

	s.mu.Lock()
	defer s.mu.Unlock()
	if fresh == s.owned {
		return false
	}

	s.logger.Info("library settings changed", "filters", fresh)
	s.owned = fresh
	return true
}
