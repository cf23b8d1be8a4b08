package notification

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/oklog/ulid/v2"
)

var ErrNotificationIsNotConstructed = errors.New("Notification must be created via NewNotification or RestoreNotification constructor")

// Notification tells a customer their order moved to a new status.
type Notification struct {
	id             ulid.ULID
	orderID        kernel.UUID
	vendorID       kernel.VendorID
	status         order.Status
	holdReason     string
	trackingNumber string
	message        string
	createdAt      time.Time
	publishedAt    *time.Time

	isConstructed bool
}

// NewNotification snapshots o after a transition. The hold reason is taken from the
// order's current status.
func NewNotification(o *order.Order, message string, now time.Time) (*Notification, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, errs.NewValueIsRequiredError("createdAt")
	}

	reason, _ := o.HoldReason()
	return &Notification{
		id:             ulid.Make(),
		orderID:        o.ID(),
		vendorID:       o.VendorID(),
		status:         o.Status(),
		holdReason:     reason,
		trackingNumber: o.TrackingNumber(),
		message:        message,
		createdAt:      now.UTC(),
		isConstructed:  true,
	}, nil
}

// RestoreNotification rebuilds a notification loaded from the outbox.
func RestoreNotification(
	id string,
	orderID kernel.UUID,
	vendorID kernel.VendorID,
	status order.Status,
	holdReason, trackingNumber, message string,
	createdAt time.Time,
	publishedAt *time.Time,
) (*Notification, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("notification id", err)
	}
	if err = errors.Join(orderID.Validate(), vendorID.Validate(), status.Validate()); err != nil {
		return nil, fmt.Errorf("notification %s: %w", id, err)
	}

	return &Notification{
		id:             parsed,
		orderID:        orderID,
		vendorID:       vendorID,
		status:         status,
		holdReason:     holdReason,
		trackingNumber: trackingNumber,
		message:        message,
		createdAt:      createdAt,
		publishedAt:    publishedAt,
		isConstructed:  true,
	}, nil
}

func (n *Notification) Validate() error {
	if n == nil || !n.isConstructed {
		return ErrNotificationIsNotConstructed
	}
	return nil
}

func (n *Notification) ID() string                { return n.id.String() }
func (n *Notification) OrderID() kernel.UUID      { return n.orderID }
func (n *Notification) VendorID() kernel.VendorID { return n.vendorID }
func (n *Notification) Status() order.Status      { return n.status }
func (n *Notification) HoldReason() string        { return n.holdReason }
func (n *Notification) TrackingNumber() string    { return n.trackingNumber }
func (n *Notification) Message() string           { return n.message }
func (n *Notification) CreatedAt() time.Time      { return n.createdAt }

func (n *Notification) PublishedAt() *time.Time {
	if n.publishedAt == nil {
		return nil
	}
	at := *n.publishedAt
	return &at
}

func (n *Notification) IsPublished() bool {
	return n.publishedAt != nil
}

// MarkPublished records the first successful publish. Later calls are ignored.
func (n *Notification) MarkPublished(at time.Time) {
	if n.publishedAt != nil {
		return
	}
	at = at.UTC()
	n.publishedAt = &at
}
