package ui

import (
	"humblesync/internal/models"
)

// libraryFetchedMsg carries the owned library resolved at startup or on refresh.
type libraryFetchedMsg struct {
	games []models.HumbleGame
	err   error
}

// localsFetchedMsg carries the installed set after a rescan.
type localsFetchedMsg struct {
	games []models.LocalGame
	err   error
}

// dispatchDoneMsg reports that an acquisition flow finished for one product.
type dispatchDoneMsg struct {
	id string
}

// launchedMsg reports the outcome of launching an installed game.
type launchedMsg struct {
	id  string
	err error
}
