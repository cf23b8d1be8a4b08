package commands

import (
	"errors"
	"slices"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const maxSignalPayloadBytes = 64 << 10

var ErrReconcileVendorSignalCommandIsNotConstructed = errors.New(
	"ReconcileVendorSignalCommand must be created via NewReconcileVendorSignalCommand constructor",
)

// ReconcileVendorSignalCommand carries one webhook exactly as received: the vendor from
// the URL, the raw body and the signature headers. Nothing in it is trusted until the
// signature has been verified.
type ReconcileVendorSignalCommand struct { //nolint:recvcheck //using for validation
	vendorID  kernel.VendorID
	payload   []byte
	signature string
	timestamp string

	guard guard.ConstructorGuard
}

// NewReconcileVendorSignalCommand requires a vendor and a non-empty payload.
// Signature headers are checked by the handler so that a missing header is reported
// as a signature failure.
func NewReconcileVendorSignalCommand(
	vendorID kernel.VendorID,
	payload []byte,
	signature, timestamp string,
) (ReconcileVendorSignalCommand, error) {
	cmd := ReconcileVendorSignalCommand{
		signature: signature,
		timestamp: timestamp,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setVendorID(vendorID),
		cmd.setPayload(payload),
	); err != nil {
		return ReconcileVendorSignalCommand{}, err
	}

	return cmd, nil
}

func (c ReconcileVendorSignalCommand) Validate() error {
	return c.guard.Validate(ErrReconcileVendorSignalCommandIsNotConstructed)
}

func (c ReconcileVendorSignalCommand) VendorID() kernel.VendorID {
	return c.vendorID
}

// Payload returns a copy of the raw request body.
func (c ReconcileVendorSignalCommand) Payload() []byte {
	return slices.Clone(c.payload)
}

func (c ReconcileVendorSignalCommand) Signature() string {
	return c.signature
}

func (c ReconcileVendorSignalCommand) Timestamp() string {
	return c.timestamp
}

func (c *ReconcileVendorSignalCommand) setVendorID(vendorID kernel.VendorID) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}
	c.vendorID = vendorID
	return nil
}

func (c *ReconcileVendorSignalCommand) setPayload(payload []byte) error {
	if len(payload) == 0 {
		return errs.NewValueIsRequiredError("payload")
	}
	if len(payload) > maxSignalPayloadBytes {
		return errs.NewValueIsOutOfRangeError("payload size", len(payload), 1, maxSignalPayloadBytes)
	}
	c.payload = slices.Clone(payload)
	return nil
}
