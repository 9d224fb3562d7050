package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"humblesync/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	LocalsView
	ConfirmView
	ResultView
)

// GameSession is the slice of the plugin session the TUI drives.
// Implemented by plugin.Session.
type GameSession interface {
	GetOwnedGames(ctx context.Context) ([]models.HumbleGame, error)
	GetLocalGames(ctx context.Context) ([]models.LocalGame, error)
	InstallGame(ctx context.Context, id string)
	LaunchGame(ctx context.Context, id string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	session  GameSession
	width    int
	height   int
	gameList list.Model
	localsUp bool
	locals   list.Model
	selected models.HumbleGame
	lastNote string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model around an authenticated session.
func NewModel(ctx context.Context, session GameSession) *Model {
	return &Model{
		ctx:     ctx,
		view:    LibraryView,
		session: session,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init kicks off the initial library fetch.
func (m *Model) Init() tea.Cmd {
	return m.fetchLibrary()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.gameList.Width() == 0 {
			m.gameList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.locals.Width() == 0 {
			m.locals.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case LocalsView:
			return m.handleLocalsKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case libraryFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.games))
		for i, game := range msg.games {
			items[i] = gameItem{game: game}
		}
		m.gameList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.gameList.Title = "Humble Library"
		m.gameList.SetSize(m.width-4, m.height-8)
		return m, m.fetchLocals()

	case localsFetchedMsg:
		if msg.err != nil {
			m.lastNote = fmt.Sprintf("install scan failed: %v", msg.err)
			return m, nil
		}
		items := make([]list.Item, len(msg.games))
		for i, game := range msg.games {
			items[i] = localItem{game: game}
		}
		m.locals = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.locals.Title = "Installed"
		m.locals.SetSize(m.width-4, m.height-8)
		m.localsUp = true
		return m, nil

	case dispatchDoneMsg:
		m.lastNote = fmt.Sprintf("Handed off '%s' to the browser.", msg.id)
		m.view = ResultView
		return m, nil

	case launchedMsg:
		if msg.err != nil {
			m.lastNote = fmt.Sprintf("launch of '%s' failed: %v", msg.id, msg.err)
		} else {
			m.lastNote = fmt.Sprintf("Launched '%s'.", msg.id)
		}
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case LocalsView:
		return m.renderLocals()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.localsUp {
			m.view = LocalsView
		}
		return m, nil
	case "r":
		return m, m.fetchLibrary()
	case "enter":
		selected := m.gameList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(gameItem); ok {
				m.selected = item.game
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.gameList, cmd = m.gameList.Update(msg)
	return m, cmd
}

func (m *Model) handleLocalsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "esc":
		m.view = LibraryView
		return m, nil
	case "r":
		return m, m.fetchLocals()
	case "enter":
		selected := m.locals.SelectedItem()
		if selected != nil {
			if item, ok := selected.(localItem); ok {
				return m, m.launch(item.game.ID())
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.locals, cmd = m.locals.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = LibraryView
		return m, nil
	case "y":
		return m, m.dispatch(m.selected.MachineName())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "r":
		m.view = LibraryView
		m.selected = nil
		m.lastNote = ""
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.gameList, cmd = m.gameList.Update(msg)
	case LocalsView:
		m.locals, cmd = m.locals.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchLibrary() tea.Cmd {
	return func() tea.Msg {
		games, err := m.session.GetOwnedGames(m.ctx)
		return libraryFetchedMsg{games: games, err: err}
	}
}

func (m *Model) fetchLocals() tea.Cmd {
	return func() tea.Msg {
		games, err := m.session.GetLocalGames(m.ctx)
		return localsFetchedMsg{games: games, err: err}
	}
}

func (m *Model) dispatch(id string) tea.Cmd {
	return func() tea.Msg {
		m.session.InstallGame(m.ctx, id)
		return dispatchDoneMsg{id: id}
	}
}

func (m *Model) launch(id string) tea.Cmd {
	return func() tea.Msg {
		return launchedMsg{id: id, err: m.session.LaunchGame(m.ctx, id)}
	}
}

func (m *Model) renderLibrary() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.gameList.View(), helpView)
}

func (m *Model) renderLocals() string {
	launchKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "launch"),
	)
	helpKeys := []key.Binding{launchKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.locals.View(), helpView)
}

func (m *Model) renderConfirm() string {
	var action string
	switch m.selected.(type) {
	case models.Key:
		action = "Reveal key for"
	case models.TroveGame:
		action = "Fetch trove download for"
	default:
		action = "Open download for"
	}

	title := styles.title.Render(fmt.Sprintf("%s '%s'?", action, m.selected.HumanName()))
	info := fmt.Sprintf("\nProduct: %s\nID: %s\n", m.selected.HumanName(), m.selected.MachineName())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	body := m.lastNote
	if body == "" {
		body = "Done."
	}

	title := styles.ok.Render("✓ " + body)
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s", title, helpView)
}
