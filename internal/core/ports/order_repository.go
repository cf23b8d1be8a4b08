package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate at version 1.
	// Returns errs.ErrObjectAlreadyExists when the id is taken.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns errs.ErrObjectNotFound when no order has the id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// CompareAndSwap stores aggregate only if the persisted version still equals
	// expectedVersion, then bumps the version by one. Returns errs.ErrVersionIsInvalid
	// when another writer got there first.
	CompareAndSwap(ctx context.Context, aggregate *order.Order, expectedVersion int64) error

	// GetAllOnHold returns every order paused in an OnHold_* status, oldest update first.
	GetAllOnHold(ctx context.Context) ([]*order.Order, error)
}
