// Package kafka publishes customer notifications to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/notification"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/propagation"
)

const (
	DefaultProduceTimeout = 10 * time.Second

	headerNotificationID = "notification-id"
	headerTraceParent    = "traceparent"
)

// producer is the subset of *kgo.Client the publisher needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// NotificationMessage is the JSON value written for every notification.
type NotificationMessage struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	VendorID       string    `json:"vendorId"`
	Status         string    `json:"status"`
	HoldReason     string    `json:"holdReason,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newNotificationMessage(n *notification.Notification) NotificationMessage {
	return NotificationMessage{
		ID:             n.ID(),
		OrderID:        n.OrderID().String(),
		VendorID:       n.VendorID().String(),
		Status:         n.Status().String(),
		HoldReason:     n.HoldReason(),
		TrackingNumber: n.TrackingNumber(),
		Message:        n.Message(),
		CreatedAt:      n.CreatedAt(),
	}
}

// NotificationPublisher writes notifications keyed by order id, so every status
// change of one order lands on the same partition in order.
type NotificationPublisher struct {
	client  producer
	topic   string
	timeout time.Duration
}

type PublisherOption func(*NotificationPublisher)

// WithProduceTimeout bounds each ProduceSync call.
func WithProduceTimeout(timeout time.Duration) PublisherOption {
	return func(p *NotificationPublisher) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func NewNotificationPublisher(client producer, topic string, opts ...PublisherOption) (*NotificationPublisher, error) {
	if client == nil {
		return nil, errors.New("kafka producer is required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	p := &NotificationPublisher{client: client, topic: topic, timeout: DefaultProduceTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewClient connects a producer-only franz-go client.
func NewClient(brokers []string, clientID string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProduceRequestTimeout(DefaultProduceTimeout),
		kgo.RecordRetries(3),
	)
}

// Publish blocks until the broker acknowledged the record or the timeout elapsed.
func (p *NotificationPublisher) Publish(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(newNotificationMessage(n))
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{
		Topic:   p.topic,
		Key:     []byte(n.OrderID().String()),
		Value:   value,
		Headers: recordHeaders(ctx, n.ID()),
	}
	if err = p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification %s to %s: %w", n.ID(), p.topic, err)
	}
	return nil
}

func recordHeaders(ctx context.Context, notificationID string) []kgo.RecordHeader {
	headers := []kgo.RecordHeader{{Key: headerNotificationID, Value: []byte(notificationID)}}

	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	if traceparent, ok := carrier[headerTraceParent]; ok {
		headers = append(headers, kgo.RecordHeader{Key: headerTraceParent, Value: []byte(traceparent)})
	}
	return headers
}
