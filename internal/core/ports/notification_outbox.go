package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/notification"
)

// NotificationOutbox stores customer notifications until the relay publishes them.
type NotificationOutbox interface {
	// Add stores n in the current transaction.
	Add(ctx context.Context, n *notification.Notification) error

	// ListPending returns up to limit unpublished notifications in creation order.
	ListPending(ctx context.Context, limit int) ([]*notification.Notification, error)

	// MarkPublished records that the notification with id reached the broker.
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// NotificationPublisher delivers a notification to downstream consumers.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *notification.Notification) error
}
