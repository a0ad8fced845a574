// Package orderflow is the single authoritative definition of the order
// lifecycle. Every service and handler that moves an order between states
// goes through this package; nothing else hardcodes status strings.
package orderflow

import "fmt"

// Status is the lifecycle stage of an order. The string values are wire
// values persisted in the orders and order_status_events tables and must
// not change.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// next maps each status to its single allowed successor. Terminal states
// have no entry.
var next = map[Status]Status{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

// actionLabels are the staff-facing affordances for advancing an order.
var actionLabels = map[Status]string{
	StatusPending:   "Start Preparing",
	StatusPreparing: "Mark Ready",
	StatusReady:     "Complete Order",
}

// AllStatuses lists every status in lifecycle order. Board views iterate
// this to build columns deterministically.
var AllStatuses = []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

// Next returns the single allowed next status for the given current status.
// The second return value is false when the status is terminal or unknown.
func Next(s Status) (Status, bool) {
	n, ok := next[s]
	return n, ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is one of the known lifecycle statuses.
func IsValid(s Status) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanCancel reports whether an order in status s may be cancelled.
// Cancellation is reachable from any non-terminal state.
func CanCancel(s Status) bool {
	return IsValid(s) && !IsTerminal(s)
}

// ActionLabel returns the staff-facing action for advancing an order in
// status s. Terminal states expose no action.
func ActionLabel(s Status) (string, bool) {
	label, ok := actionLabels[s]
	return label, ok
}

// Parse validates a raw status string from the wire.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	if !IsValid(s) {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}
