// Package outboxrepo persists customer notifications until the relay publishes them.
package outboxrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// NotificationDTO is a row of the notification outbox. ULID ids sort by creation time.
type NotificationDTO struct {
	ID             string    `gorm:"type:char(26);primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID       string    `gorm:"type:varchar(64);not null"`
	Status         int       `gorm:"not null"`
	HoldReason     string
	TrackingNumber string `gorm:"type:varchar(128)"`
	Message        string
	CreatedAt      time.Time  `gorm:"not null"`
	PublishedAt    *time.Time `gorm:"index"`
}

func (NotificationDTO) TableName() string {
	return "notification_outbox"
}

func fromDomain(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:             n.ID(),
		OrderID:        n.OrderID().Bytes(),
		VendorID:       n.VendorID().String(),
		Status:         int(n.Status()),
		HoldReason:     n.HoldReason(),
		TrackingNumber: n.TrackingNumber(),
		Message:        n.Message(),
		CreatedAt:      n.CreatedAt(),
		PublishedAt:    n.PublishedAt(),
	}
}

func toDomain(dto NotificationDTO) (*notification.Notification, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	vendorID, err := kernel.NewVendorID(dto.VendorID)
	if err != nil {
		return nil, err
	}
	return notification.RestoreNotification(
		dto.ID,
		orderID,
		vendorID,
		order.Status(dto.Status),
		dto.HoldReason,
		dto.TrackingNumber,
		dto.Message,
		dto.CreatedAt.UTC(),
		dto.PublishedAt,
	)
}
