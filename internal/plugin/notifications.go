package plugin

import (
	"github.com/charmbracelet/log"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// Notifier receives push-style state notifications from the reconciliation
// tasks. Calls are one-way and fire-and-forget from the engine's perspective.
type Notifier interface {
	// AddGame announces a product that entered the owned set.
	AddGame(game models.HumbleGame)

	// RemoveGame announces a product that left the owned set.
	RemoveGame(id string)

	// UpdateLocalGameStatus announces a changed local state for one game.
	UpdateLocalGameStatus(id string, state models.GameState)
}

// LogNotifier writes notifications to the log. Used by the CLI run loop and
// as the default when a host provides no sink.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier logging through the given logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AddGame(game models.HumbleGame) {
	n.logger.Info("game added", "id", game.MachineName(), "name", game.HumanName(), "kind", game.Kind())
}

func (n *LogNotifier) RemoveGame(id string) {
	n.logger.Info("game removed", "id", id)
}

func (n *LogNotifier) UpdateLocalGameStatus(id string, state models.GameState) {
	n.logger.Info("local game status", "id", id, "state", state.String())
}

// Reporter is the telemetry boundary for non-fatal failures. The engine
// attaches the offending product or map snapshot as context.
type Reporter interface {
	Report(err error, context any)
}

// LogReporter implements Reporter by logging with a generated event id, for
// hosts without a crash-reporting backend.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter logging through the given logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(err error, context any) {
	r.logger.Error("problem reported", "event_id", shared.GenerateID(), "err", err, "context", context)
}
