package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetOnHoldOrdersQueryHandler reads orders in any OnHold_* status.
type GetOnHoldOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetOnHoldOrdersQueryHandler(db *gorm.DB) GetOnHoldOrdersQueryHandler {
	return GetOnHoldOrdersQueryHandler{db: db}
}

// Handle returns an empty, non-nil slice when nothing is on hold.
func (h GetOnHoldOrdersQueryHandler) Handle(ctx context.Context, query GetOnHoldOrdersQuery) ([]OrderStatusResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	statuses := make([]int, 0, len(order.HoldStatuses()))
	for _, s := range order.HoldStatuses() {
		statuses = append(statuses, int(s))
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			vendor_id,
			status,
			version,
			tracking_number,
			estimated_delivery,
			updated_at
		FROM orders
		WHERE status IN ?
		ORDER BY updated_at, id
	`, statuses).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]OrderStatusResponse, 0)
	for rows.Next() {
		o, scanErr := scanOrderStatus(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
