package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Status represents the canonical lifecycle state of a print order,
// independent of any vendor's own terminology.
//
// Status is a value object: validation, string conversion and the hold and
// terminal classifications are pure functions of the value.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status: the order was placed with a vendor
	// that has not yet confirmed it.
	Pending

	// Prepress means the vendor accepted the order and is checking the files.
	Prepress

	// OnHoldBadFiles pauses production because the files fail print specifications.
	OnHoldBadFiles

	// OnHoldBadImages pauses production because images are unsuitable for print.
	OnHoldBadImages

	// OnHoldMissingFile pauses production because a file is missing.
	OnHoldMissingFile

	// OnHoldTextNearEdge pauses production because text is too close to the trim edge.
	OnHoldTextNearEdge

	// Production means the files were approved and the order is being printed.
	Production

	// Shipped means the vendor handed the order to a carrier.
	Shipped

	// Delivered is terminal: the carrier reported delivery.
	Delivered

	// Cancelled is terminal: the order will not be produced.
	Cancelled
)

var statusNames = map[Status]string{
	Pending:            "Pending",
	Prepress:           "Prepress",
	OnHoldBadFiles:     "OnHold_BadFiles",
	OnHoldBadImages:    "OnHold_BadImages",
	OnHoldMissingFile:  "OnHold_MissingFile",
	OnHoldTextNearEdge: "OnHold_TextNearEdge",
	Production:         "Production",
	Shipped:            "Shipped",
	Delivered:          "Delivered",
	Cancelled:          "Cancelled",
}

var holdReasons = map[Status]string{
	OnHoldBadFiles:     "Files do not meet printing specifications",
	OnHoldBadImages:    "Images are too low resolution for printing",
	OnHoldMissingFile:  "A required print file is missing",
	OnHoldTextNearEdge: "Text is too close to the trim edge",
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		Pending,
		Prepress,
		OnHoldBadFiles,
		OnHoldBadImages,
		OnHoldMissingFile,
		OnHoldTextNearEdge,
		Production,
		Shipped,
		Delivered,
		Cancelled,
	}
}

// HoldStatuses returns the four OnHold_* statuses.
func HoldStatuses() []Status {
	return []Status{OnHoldBadFiles, OnHoldBadImages, OnHoldMissingFile, OnHoldTextNearEdge}
}

// ParseStatus converts a canonical name such as "OnHold_BadFiles" to a Status.
// Matching ignores case and surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	needle := strings.TrimSpace(s)
	for status, name := range statusNames {
		if strings.EqualFold(name, needle) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the canonical states.
// Unknown (0) and any other values are invalid.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the canonical name, or "Unknown" for invalid values.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsOnHold reports whether s is one of the OnHold_* variants.
func (s Status) IsOnHold() bool {
	_, ok := holdReasons[s]
	return ok
}

// IsFinal reports whether s is Delivered or Cancelled.
func (s Status) IsFinal() bool {
	return s == Delivered || s == Cancelled
}

// HoldReason returns the customer-facing explanation of a hold.
// The boolean is false for every non-hold status, so IsOnHold() == ok always holds.
func (s Status) HoldReason() (string, bool) {
	reason, ok := holdReasons[s]
	return reason, ok
}
