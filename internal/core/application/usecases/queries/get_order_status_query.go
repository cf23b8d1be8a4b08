// Package queries contains read operations for retrieving system state.
// Queries read straight from the database and return flat read models.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetOrderStatusQueryIsNotConstructed = errors.New(
		"GetOrderStatusQuery must be created via NewGetOrderStatusQuery constructor",
	)
)

// GetOrderStatusQuery reads the current lifecycle position of one order.
//
// Example:
//
//	query, err := NewGetOrderStatusQuery(orderID)
//	if err != nil {
//	    return err
//	}
//	status, err := handler.Handle(ctx, query)
type GetOrderStatusQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderStatusQuery(orderID kernel.UUID) (GetOrderStatusQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderStatusQuery{}, errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	return GetOrderStatusQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderStatusQuery) OrderID() kernel.UUID {
	return q.orderID
}

// Validate ensures the query was created through the constructor.
func (q GetOrderStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderStatusQueryIsNotConstructed)
}

// OrderStatusResponse is the read model of an order's status.
type OrderStatusResponse struct {
	ID                kernel.UUID
	VendorID          string
	Status            string
	HoldReason        string
	IsOnHold          bool
	IsFinal           bool
	Version           int64
	TrackingNumber    string
	EstimatedDelivery *time.Time
	UpdatedAt         time.Time
}
