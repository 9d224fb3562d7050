package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Library     LibraryConfig     `toml:"library"`
	Installed   InstalledConfig   `toml:"installed"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains the Humble Bundle web session credentials.
//
// The session cookie is the value of the _simpleauth_sess cookie issued after
// a browser login; there is no API-key or OAuth flow for this service.
type CredentialsConfig struct {
	SessionCookie string `toml:"session_cookie"`
	UserID        string `toml:"user_id"`
	UserName      string `toml:"user_name"`
}

// DatabaseConfig contains settings for the SQLite cache database.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LibraryConfig contains user-tunable ownership filters. These decide which
// catalog records count as "owned" and are snapshot-compared across
// reconciliation cycles to detect user-driven changes.
type LibraryConfig struct {
	ShowTroveGames      bool `toml:"show_trove_games"`
	ShowKeysWithoutGame bool `toml:"show_keys_without_game"`
	ShowRevealedKeys    bool `toml:"show_revealed_keys"`
	ShowGameBundles     bool `toml:"show_game_bundles"`
	ShowSoftware        bool `toml:"show_software"`
	ShowEbooks          bool `toml:"show_ebooks"`
}

// InstalledConfig contains settings for the local install scanner.
type InstalledConfig struct {
	SearchDirs []string `toml:"search_dirs"`
}

// SyncConfig controls how often the run-loop driver invokes Tick and how
// revealed keys are presented.
type SyncConfig struct {
	TickIntervalMS int    `toml:"tick_interval_ms"`
	KeyHelper      string `toml:"key_helper"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes the configuration back to a TOML file.
func SaveConfig(path string, config *Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
