package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"humblesync/internal/models"
)

var (
	_ list.Item = gameItem{}
	_ list.Item = localItem{}
)

// gameItem wraps [models.HumbleGame] to implement [list.Item].
type gameItem struct {
	game models.HumbleGame
}

func (i gameItem) FilterValue() string { return i.game.HumanName() }
func (i gameItem) Title() string       { return i.game.HumanName() }
func (i gameItem) Description() string {
	switch g := i.game.(type) {
	case models.Key:
		label := g.Data.KeyTypeHumanName
		if label == "" {
			label = "key"
		}
		if g.IsRevealed() {
			return fmt.Sprintf("%s • revealed", label)
		}
		return fmt.Sprintf("%s • unrevealed", label)
	case models.TroveGame:
		return "trove"
	default:
		return "download"
	}
}

// localItem wraps [models.LocalGame] to implement [list.Item].
type localItem struct {
	game models.LocalGame
}

func (i localItem) FilterValue() string { return i.game.ID() }
func (i localItem) Title() string       { return i.game.ID() }
func (i localItem) Description() string { return i.game.State().String() }
