package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"
)

// RelayResult counts what one relay run did.
type RelayResult struct {
	Pending   int
	Published int
}

// RelayNotificationsCommandHandler publishes pending outbox notifications in creation
// order and marks each one published after the broker acknowledged it. The batch stops
// at the first failed publish so notifications of one order are never reordered;
// the failed entry and everything after it stay pending for the next run.
//
// No transaction is open while the broker is called: the batch is read in one short
// transaction and every acknowledged entry is marked in its own. A crash between the
// acknowledgement and the mark republishes that entry on the next run.
type RelayNotificationsCommandHandler struct {
	uowFactory OutboxUoWFactory
	publisher  ports.NotificationPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewRelayNotificationsCommandHandler(
	uowFactory OutboxUoWFactory,
	publisher ports.NotificationPublisher,
	logger *slog.Logger,
) RelayNotificationsCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return RelayNotificationsCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "notification_relay"),
		now:        time.Now,
	}
}

func (h RelayNotificationsCommandHandler) Handle(ctx context.Context, cmd RelayNotificationsCommand) (RelayResult, error) {
	if err := cmd.Validate(); err != nil {
		return RelayResult{}, err
	}

	pending, err := h.listPending(ctx, cmd.BatchSize())
	if err != nil {
		return RelayResult{}, err
	}

	result := RelayResult{Pending: len(pending)}
	for _, n := range pending {
		if err = h.publisher.Publish(ctx, n); err != nil {
			metrics.IncOutbox("failed")
			err = fmt.Errorf("publish notification %s: %w", n.ID(), err)
			h.logger.WarnContext(ctx, "Notification relay stopped early",
				"published", result.Published, "pending", result.Pending, "error", err)
			return result, err
		}
		if err = h.markPublished(ctx, n.ID()); err != nil {
			return result, fmt.Errorf("mark notification %s published: %w", n.ID(), err)
		}
		metrics.IncOutbox("published")
		result.Published++
	}

	return result, nil
}

func (h RelayNotificationsCommandHandler) listPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	pending, err := uow.NotificationOutbox().ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return pending, nil
}

func (h RelayNotificationsCommandHandler) markPublished(ctx context.Context, id string) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.NotificationOutbox().MarkPublished(ctx, id, h.now()); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
