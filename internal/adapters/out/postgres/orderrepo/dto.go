// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table. Version is the optimistic concurrency token.
type OrderDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID          string    `gorm:"type:varchar(64);not null;index"`
	Status            int       `gorm:"not null;index"`
	Version           int64     `gorm:"not null;default:1"`
	TrackingNumber    string    `gorm:"type:varchar(128)"`
	EstimatedDelivery *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:                o.ID().Bytes(),
		VendorID:          o.VendorID().String(),
		Status:            int(o.Status()),
		Version:           o.Version(),
		TrackingNumber:    o.TrackingNumber(),
		EstimatedDelivery: o.EstimatedDelivery(),
	}
}

// toDomain reconstructs the aggregate using RestoreOrder, so stored rows are validated
// like any other input.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	vendorID, err := kernel.NewVendorID(dto.VendorID)
	if err != nil {
		return nil, err
	}

	var eta *time.Time
	if dto.EstimatedDelivery != nil {
		utc := dto.EstimatedDelivery.UTC()
		eta = &utc
	}

	return order.RestoreOrder(id, vendorID, order.Status(dto.Status), dto.Version, dto.TrackingNumber, eta)
}
