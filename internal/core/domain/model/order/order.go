package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

const maxTrackingNumberLength = 128

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")
)

// ShipmentDetails carries optional data a vendor may attach to a signal.
// Empty fields are ignored when applied.
type ShipmentDetails struct {
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// Order is the aggregate root for a print order placed with a production vendor.
//
// Order follows these invariants:
//   - Must have a valid unique identifier and vendor
//   - Status is always a canonical Status
//   - Status changes only through Apply, which consults the transition table
//   - Version is the optimistic concurrency token of the persisted record
type Order struct {
	id       kernel.UUID
	vendorID kernel.VendorID
	status   Status

	// version is the value loaded from storage; repositories compare against it.
	version int64

	trackingNumber    string
	estimatedDelivery *time.Time

	isConstructed bool
}

// NewOrder creates an order in Pending status for the vendor that received it.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), kernel.MustVendorID("acme"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(o.Status()) // Pending
func NewOrder(id kernel.UUID, vendorID kernel.VendorID) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setVendorID(vendorID),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persistence, validating every field.
func RestoreOrder(
	id kernel.UUID,
	vendorID kernel.VendorID,
	status Status,
	version int64,
	trackingNumber string,
	estimatedDelivery *time.Time,
) (*Order, error) {
	o := &Order{isConstructed: true}

	if err := errors.Join(
		o.setID(id),
		o.setVendorID(vendorID),
		o.setStatus(status),
		o.setVersion(version),
		o.setTrackingNumber(trackingNumber),
	); err != nil {
		return nil, err
	}
	o.estimatedDelivery = estimatedDelivery

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) VendorID() kernel.VendorID {
	return o.vendorID
}

func (o *Order) Status() Status {
	return o.status
}

// Version returns the persisted version the order was loaded with (0 for new orders).
func (o *Order) Version() int64 {
	return o.version
}

func (o *Order) TrackingNumber() string {
	return o.trackingNumber
}

// EstimatedDelivery returns a copy of the vendor's delivery estimate, if any.
func (o *Order) EstimatedDelivery() *time.Time {
	if o.estimatedDelivery == nil {
		return nil
	}
	eta := *o.estimatedDelivery
	return &eta
}

func (o *Order) IsOnHold() bool {
	return o.status.IsOnHold()
}

func (o *Order) IsFinal() bool {
	return o.status.IsFinal()
}

func (o *Order) HoldReason() (string, bool) {
	return o.status.HoldReason()
}

// Apply evaluates event against table from the order's current status.
//
// A successful, non-replayed result moves the order to the new status and records
// any shipment details. Replays and rejections leave the order unchanged. The returned
// error is reserved for an unusable aggregate or table; domain rejections are reported
// through TransitionResult.Err.
func (o *Order) Apply(table Table, event Event, details ShipmentDetails) (TransitionResult, error) {
	if err := o.Validate(); err != nil {
		return TransitionResult{}, err
	}

	tracking := strings.TrimSpace(details.TrackingNumber)
	if len(tracking) > maxTrackingNumberLength {
		return TransitionResult{}, errs.NewValueIsOutOfRangeError("tracking number length", len(tracking), 0, maxTrackingNumberLength)
	}

	machine, err := RestoreStateMachine(table, o.status)
	if err != nil {
		return TransitionResult{}, err
	}

	result := machine.Apply(event)
	if !result.Changed() {
		return result, nil
	}

	o.status = machine.CurrentStatus()
	if tracking != "" {
		o.trackingNumber = tracking
	}
	if details.EstimatedDelivery != nil {
		eta := details.EstimatedDelivery.UTC()
		o.estimatedDelivery = &eta
	}

	return result, nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setVendorID(vendorID kernel.VendorID) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}
	o.vendorID = vendorID
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setVersion(version int64) error {
	if version < 0 {
		return errs.NewValueIsInvalidErrorWithCause("version is invalid", fmt.Errorf("%d is negative", version))
	}
	o.version = version
	return nil
}

func (o *Order) setTrackingNumber(trackingNumber string) error {
	if len(trackingNumber) > maxTrackingNumberLength {
		return errs.NewValueIsOutOfRangeError("tracking number length", len(trackingNumber), 0, maxTrackingNumberLength)
	}
	o.trackingNumber = trackingNumber
	return nil
}
