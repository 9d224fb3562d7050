package models

import "context"

// GameState enumerates the observable local states of an installed game.
type GameState int

const (
	StateNotInstalled GameState = iota
	StateInstalled
	StateRunning
)

func (s GameState) String() string {
	switch s {
	case StateNotInstalled:
		return "not_installed"
	case StateInstalled:
		return "installed"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// LocalGame is the local installation facet of an owned product. State is
// probed live on each call so the status tracker can observe launch and exit
// transitions between polling cycles.
type LocalGame interface {
	// ID returns the owning product's machine name.
	ID() string

	// State reports the current install/run state.
	State() GameState

	// Run launches the installed game.
	Run(ctx context.Context) error

	// Uninstall runs the game's uninstaller.
	Uninstall(ctx context.Context) error
}
