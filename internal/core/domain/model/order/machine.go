package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// InvalidTransitionError reports an event that the table does not allow from the
// current status. It unwraps to errs.ErrValueIsInvalid.
type InvalidTransitionError struct {
	Current      Status
	Event        Event
	UnknownEvent bool
}

func (e *InvalidTransitionError) Error() string {
	if e.UnknownEvent {
		return fmt.Sprintf("cannot apply %s in %s status: event is not defined", e.Event, e.Current)
	}
	return fmt.Sprintf("cannot apply %s in %s status", e.Event, e.Current)
}

func (e *InvalidTransitionError) Unwrap() error {
	return errs.ErrValueIsInvalid
}

// TransitionResult is the outcome of evaluating one event.
//
// On failure Success is false, NewStatus equals PreviousStatus and Err describes the
// rejection. Replayed is set by StateMachine.Apply when the event had already been
// applied; such results are successful but carry no status change and no notification.
type TransitionResult struct {
	Success              bool
	Replayed             bool
	Event                Event
	PreviousStatus       Status
	NewStatus            Status
	NotifyCustomer       bool
	RequiresVendorUpdate bool
	Err                  error
}

// Changed reports whether the result moved the order to a new status.
func (r TransitionResult) Changed() bool {
	return r.Success && !r.Replayed
}

// StateMachine evaluates the transition table for a single order.
//
// It performs no I/O and holds no locks: each reconciliation loads the persisted
// status, builds a machine, applies one event and discards it. Callers serialize
// mutations of the same order through the repository.
type StateMachine struct {
	table   Table
	current Status
}

// NewStateMachine starts a machine in Pending.
func NewStateMachine(table Table) (*StateMachine, error) {
	return RestoreStateMachine(table, Pending)
}

// RestoreStateMachine starts a machine at a persisted status. Unknown is treated as Pending.
func RestoreStateMachine(table Table, current Status) (*StateMachine, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if current == Unknown {
		current = Pending
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}
	return &StateMachine{table: table, current: current}, nil
}

// CurrentStatus returns the status the machine is in.
func (m *StateMachine) CurrentStatus() Status {
	return m.current
}

// CanTransition reports whether the table has a row for (current status, event).
func (m *StateMachine) CanTransition(event Event) bool {
	_, ok := m.table.Find(m.current, event)
	return ok
}

// Transition applies event with strict table semantics. The machine is mutated only
// when a row matches; a rejected event leaves the current status untouched.
func (m *StateMachine) Transition(event Event) TransitionResult {
	result := TransitionResult{
		Event:          event,
		PreviousStatus: m.current,
		NewStatus:      m.current,
	}

	row, ok := m.table.Find(m.current, event)
	if !ok {
		result.Err = &InvalidTransitionError{
			Current:      m.current,
			Event:        event,
			UnknownEvent: !m.table.HasEvent(event),
		}
		return result
	}

	m.current = row.To

	result.Success = true
	result.NewStatus = row.To
	result.NotifyCustomer = row.NotifyCustomer
	result.RequiresVendorUpdate = row.RequiresVendorUpdate
	return result
}

// Apply is Transition plus replay detection: if the order already sits in the
// status event leads to, the event is acknowledged as a no-op instead of rejected.
// Events leading to any other status still fail.
func (m *StateMachine) Apply(event Event) TransitionResult {
	result := m.Transition(event)
	if result.Success || !m.table.IsReplay(m.current, event) {
		return result
	}

	origin, _ := m.table.OriginOf(event)
	return TransitionResult{
		Success:              true,
		Replayed:             true,
		Event:                event,
		PreviousStatus:       m.current,
		NewStatus:            m.current,
		RequiresVendorUpdate: origin == OriginVendor,
	}
}

// IsOnHold reports whether the order is paused on one of the OnHold_* statuses.
func (m *StateMachine) IsOnHold() bool {
	return m.current.IsOnHold()
}

// IsFinalState reports whether the order reached Delivered or Cancelled.
func (m *StateMachine) IsFinalState() bool {
	return m.current.IsFinal()
}

// HoldReason returns the explanation of the current hold, if any.
func (m *StateMachine) HoldReason() (string, bool) {
	return m.current.HoldReason()
}
