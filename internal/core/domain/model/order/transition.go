package order

import (
	"errors"
	"fmt"
	"slices"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrTableIsNotConstructed is returned when a Table was not built by NewTable or DefaultTable.
var ErrTableIsNotConstructed = errors.New("Table must be created via NewTable or DefaultTable constructor")

// Origin tells which ingress path is allowed to raise an event.
type Origin int

const (
	// OriginVendor events arrive through signed vendor webhooks.
	OriginVendor Origin = iota + 1

	// OriginCustomer events arrive through customer actions, e.g. re-uploading files.
	OriginCustomer
)

func (o Origin) String() string {
	switch o {
	case OriginVendor:
		return "vendor"
	case OriginCustomer:
		return "customer"
	default:
		return "unknown"
	}
}

// Transition is a single legal edge of the lifecycle: any status in From moves to To
// when Event is applied.
type Transition struct {
	From  []Status
	To    Status
	Event Event

	// RequiresVendorUpdate marks events reported by the production vendor.
	// Rows without it are customer-originated.
	RequiresVendorUpdate bool

	// NotifyCustomer marks transitions that must produce a customer notification.
	NotifyCustomer bool
}

// Allows reports whether the transition starts from s.
func (t Transition) Allows(s Status) bool {
	return slices.Contains(t.From, s)
}

// Origin derives the ingress path from RequiresVendorUpdate.
func (t Transition) Origin() Origin {
	if t.RequiresVendorUpdate {
		return OriginVendor
	}
	return OriginCustomer
}

func (t Transition) clone() Transition {
	t.From = slices.Clone(t.From)
	return t
}

// Table is the immutable, ordered list of legal transitions.
//
// A Table can only be obtained from NewTable or DefaultTable, both of which reject a
// table that:
//   - leaves a non-terminal status without an outgoing transition
//   - has two rows sharing an overlapping (From, Event) pair
//   - has any outgoing transition from Delivered or Cancelled
//   - has a row with an empty event, an invalid target or no valid source
//   - raises the same event from both ingress paths
//
// Lookups never need a tie-break because at most one row can match.
type Table struct {
	rows  []Transition
	guard guard.ConstructorGuard
}

// NewTable copies rows and validates them. All problems are returned together.
func NewTable(rows []Transition) (Table, error) {
	copied := make([]Transition, 0, len(rows))
	for _, row := range rows {
		copied = append(copied, row.clone())
	}

	if err := validateRows(copied); err != nil {
		return Table{}, err
	}

	return Table{rows: copied, guard: guard.NewConstructorGuard()}, nil
}

// DefaultTable returns the canonical lifecycle. It panics if the built-in rows are
// inconsistent; the process must not start with such a table.
func DefaultTable() Table {
	table, err := NewTable(defaultTransitions())
	if err != nil {
		panic(fmt.Sprintf("order: default transition table is invalid: %v", err))
	}
	return table
}

func defaultTransitions() []Transition {
	cancellable := append([]Status{Pending, Prepress}, HoldStatuses()...)

	return []Transition{
		{From: []Status{Pending}, To: Prepress, Event: EventVendorAccepted, RequiresVendorUpdate: true, NotifyCustomer: true},
		{From: []Status{Prepress}, To: Production, Event: EventFilesApproved, RequiresVendorUpdate: true, NotifyCustomer: true},

		// Prepress checks
		{From: []Status{Prepress}, To: OnHoldBadFiles, Event: EventBadFilesDetected, RequiresVendorUpdate: true, NotifyCustomer: true},
		{From: []Status{Prepress}, To: OnHoldBadImages, Event: EventBadImagesDetected, RequiresVendorUpdate: true, NotifyCustomer: true},
		{From: []Status{Prepress}, To: OnHoldMissingFile, Event: EventFileMissing, RequiresVendorUpdate: true, NotifyCustomer: true},
		{From: []Status{Prepress}, To: OnHoldTextNearEdge, Event: EventTextEdgeIssue, RequiresVendorUpdate: true, NotifyCustomer: true},

		// Customer fixes the files
		{From: HoldStatuses(), To: Prepress, Event: EventFilesResubmitted},

		// Fulfilment
		{From: []Status{Production}, To: Shipped, Event: EventOrderShipped, RequiresVendorUpdate: true, NotifyCustomer: true},
		{From: []Status{Shipped}, To: Delivered, Event: EventOrderDelivered, RequiresVendorUpdate: true, NotifyCustomer: true},

		{From: cancellable, To: Cancelled, Event: EventOrderCancelled, RequiresVendorUpdate: true, NotifyCustomer: true},
	}
}

func validateRows(rows []Transition) error {
	var problems []error
	invalid := func(format string, args ...any) {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("transition table", fmt.Errorf(format, args...)))
	}

	if len(rows) == 0 {
		invalid("table has no transitions")
	}

	outgoing := make(map[Status]int)
	origins := make(map[Event]Origin)

	for i, row := range rows {
		if err := row.Event.Validate(); err != nil {
			invalid("row %d has no event", i)
		}
		if err := row.To.Validate(); err != nil {
			invalid("row %d (%s) targets invalid status %d", i, row.Event, row.To)
		}
		if len(row.From) == 0 {
			invalid("row %d (%s) has no source status", i, row.Event)
		}
		for _, from := range row.From {
			if err := from.Validate(); err != nil {
				invalid("row %d (%s) starts from invalid status %d", i, row.Event, from)
				continue
			}
			outgoing[from]++
		}

		if origin, seen := origins[row.Event]; seen && origin != row.Origin() {
			invalid("event %s is raised by both vendor and customer rows", row.Event)
		}
		origins[row.Event] = row.Origin()

		for j := range i {
			if rows[j].Event != row.Event {
				continue
			}
			for _, from := range row.From {
				if rows[j].Allows(from) {
					invalid("rows %d and %d both match (%s, %s)", j, i, from, row.Event)
				}
			}
		}
	}

	for _, status := range AllStatuses() {
		switch {
		case status.IsFinal() && outgoing[status] > 0:
			invalid("terminal status %s has %d outgoing transitions", status, outgoing[status])
		case !status.IsFinal() && outgoing[status] == 0:
			invalid("non-terminal status %s has no outgoing transition", status)
		}
	}

	return errors.Join(problems...)
}

// Validate ensures the table was built through a validating constructor.
func (t Table) Validate() error {
	return t.guard.Validate(ErrTableIsNotConstructed)
}

// Rows returns a copy of the transitions in declaration order.
func (t Table) Rows() []Transition {
	rows := make([]Transition, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row.clone())
	}
	return rows
}

// Find returns the only transition matching (from, event).
func (t Table) Find(from Status, event Event) (Transition, bool) {
	for _, row := range t.rows {
		if row.Event == event && row.Allows(from) {
			return row.clone(), true
		}
	}
	return Transition{}, false
}

// Outgoing returns every transition leaving s.
func (t Table) Outgoing(s Status) []Transition {
	var rows []Transition
	for _, row := range t.rows {
		if row.Allows(s) {
			rows = append(rows, row.clone())
		}
	}
	return rows
}

// Events returns the distinct events in order of first appearance.
func (t Table) Events() []Event {
	var events []Event
	for _, row := range t.rows {
		if !slices.Contains(events, row.Event) {
			events = append(events, row.Event)
		}
	}
	return events
}

// HasEvent reports whether any row is raised by event.
func (t Table) HasEvent(event Event) bool {
	_, ok := t.OriginOf(event)
	return ok
}

// OriginOf returns the ingress path allowed to raise event.
func (t Table) OriginOf(event Event) (Origin, bool) {
	for _, row := range t.rows {
		if row.Event == event {
			return row.Origin(), true
		}
	}
	return 0, false
}

// TargetOf returns the status event leads to. Every row of one event in the
// canonical table shares a target, so the first row decides.
func (t Table) TargetOf(event Event) (Status, bool) {
	for _, row := range t.rows {
		if row.Event == event {
			return row.To, true
		}
	}
	return Unknown, false
}

// IsReplay reports whether current is already the target of event, meaning a
// re-delivered signal for event has nothing left to do.
func (t Table) IsReplay(current Status, event Event) bool {
	for _, row := range t.rows {
		if row.Event == event && row.To == current {
			return true
		}
	}
	return false
}
