package plugin

import (
	"sync"

	"humblesync/internal/models"
)

// StatusTracker diffs per-game state observations across polling cycles so
// only genuine transitions are forwarded. Consecutive repeats are suppressed;
// flapping (A→B→A) produces a notification per edge.
type StatusTracker struct {
	mu     sync.Mutex
	states map[string]models.GameState
}

// NewStatusTracker creates an empty tracker. The first observation for an id
// always counts as a transition.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{states: make(map[string]models.GameState)}
}

// Observe records a state observation and reports whether it differs from the
// last recorded value for that id. The tracker is updated before returning,
// so a true result must be acted on by the caller.
func (t *StatusTracker) Observe(id string, state models.GameState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, seen := t.states[id]
	if seen && last == state {
		return false
	}
	t.states[id] = state
	return true
}
