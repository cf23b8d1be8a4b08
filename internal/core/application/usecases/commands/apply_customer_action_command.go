package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrApplyCustomerActionCommandIsNotConstructed = errors.New(
	"ApplyCustomerActionCommand must be created via NewApplyCustomerActionCommand constructor",
)

// ApplyCustomerActionCommand is an event raised by the customer, such as uploading
// corrected files for an order on hold.
type ApplyCustomerActionCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	event   order.Event

	guard guard.ConstructorGuard
}

func NewApplyCustomerActionCommand(orderID kernel.UUID, event string) (ApplyCustomerActionCommand, error) {
	cmd := ApplyCustomerActionCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setEvent(event),
	); err != nil {
		return ApplyCustomerActionCommand{}, err
	}

	return cmd, nil
}

func (c ApplyCustomerActionCommand) Validate() error {
	return c.guard.Validate(ErrApplyCustomerActionCommandIsNotConstructed)
}

func (c ApplyCustomerActionCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ApplyCustomerActionCommand) Event() order.Event {
	return c.event
}

func (c *ApplyCustomerActionCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *ApplyCustomerActionCommand) setEvent(raw string) error {
	event, err := order.NewEvent(raw)
	if err != nil {
		return err
	}
	c.event = event
	return nil
}
