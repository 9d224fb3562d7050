// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow over one account session:
//  1. [LibraryView] : Browse the owned library (keys, downloads, trove entries)
//  2. [LocalsView] : Browse games installed on this machine
//  3. [ConfirmView] : Confirm an acquisition before it is dispatched
//  4. [ResultView] : Show the outcome of the last action
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// typed messages from commands that call into the plugin session. Dispatches run in the
// background so the list stays responsive while the browser handoff happens.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, y/n, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
