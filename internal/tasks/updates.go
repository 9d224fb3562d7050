package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchOrders Phase = iota
	FetchTrove
	ExportOrder
)

func (p Phase) String() string {
	switch p {
	case FetchOrders:
		return "fetch_orders"
	case FetchTrove:
		return "fetch_trove"
	case ExportOrder:
		return "export_order"
	default:
		return ""
	}
}

func fetchOrdersUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchOrders,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching orders...", step, total),
	}
}

func fetchTroveUpdate(page int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTrove,
		Step:    page + 1,
		Message: fmt.Sprintf("Fetching trove catalog (page %d)...", page+1),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportOrder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportOrder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
