package queries

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderStatusQueryHandler reads one order row with plain SQL.
type GetOrderStatusQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderStatusQueryHandler(db *gorm.DB) GetOrderStatusQueryHandler {
	return GetOrderStatusQueryHandler{db: db}
}

// Handle returns errs.ErrObjectNotFound when the order does not exist.
func (h GetOrderStatusQueryHandler) Handle(ctx context.Context, query GetOrderStatusQuery) (OrderStatusResponse, error) {
	if err := query.Validate(); err != nil {
		return OrderStatusResponse{}, err
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
		WHERE id = ?
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return OrderStatusResponse{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return OrderStatusResponse{}, err
		}
		return OrderStatusResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	return scanOrderStatus(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderStatus(rows rowScanner) (OrderStatusResponse, error) {
	var (
		id             uuid.UUID
		vendorID       string
		rawStatus      int
		version        int64
		trackingNumber *string
		eta            *time.Time
		updatedAt      time.Time
	)
	if err := rows.Scan(&id, &vendorID, &rawStatus, &version, &trackingNumber, &eta, &updatedAt); err != nil {
		return OrderStatusResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return OrderStatusResponse{}, err
	}
	status := order.Status(rawStatus)
	if err = status.Validate(); err != nil {
		return OrderStatusResponse{}, err
	}

	response := OrderStatusResponse{
		ID:        orderID,
		VendorID:  vendorID,
		Status:    status.String(),
		IsOnHold:  status.IsOnHold(),
		IsFinal:   status.IsFinal(),
		Version:   version,
		UpdatedAt: updatedAt.UTC(),
	}
	response.HoldReason, _ = status.HoldReason()
	if trackingNumber != nil {
		response.TrackingNumber = *trackingNumber
	}
	if eta != nil {
		utc := eta.UTC()
		response.EstimatedDelivery = &utc
	}
	return response, nil
}
