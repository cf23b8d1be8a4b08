package order

import (
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Event names a signal that moves an order from one status to another.
// Whether an event is legal for a given status is decided by the Table, not here.
type Event string

const (
	EventVendorAccepted    Event = "vendor_accepted"
	EventFilesApproved     Event = "files_approved"
	EventBadFilesDetected  Event = "bad_files_detected"
	EventBadImagesDetected Event = "bad_images_detected"
	EventFileMissing       Event = "file_missing"
	EventTextEdgeIssue     Event = "text_edge_issue"
	EventFilesResubmitted  Event = "files_resubmitted"
	EventOrderShipped      Event = "order_shipped"
	EventOrderDelivered    Event = "order_delivered"
	EventOrderCancelled    Event = "order_cancelled"
)

// NewEvent trims and lower-cases raw.
func NewEvent(raw string) (Event, error) {
	e := Event(strings.ToLower(strings.TrimSpace(raw)))
	if err := e.Validate(); err != nil {
		return "", err
	}
	return e, nil
}

func (e Event) String() string {
	return string(e)
}

// Validate rejects the empty event.
func (e Event) Validate() error {
	if e == "" {
		return errs.NewValueIsRequiredError("event")
	}
	return nil
}
