package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ApplyCustomerActionCommandHandler applies customer-originated events through the
// same table, state machine, retry and outbox as vendor signals. Vendor-originated
// events are rejected as invalid transitions on this path.
type ApplyCustomerActionCommandHandler struct {
	reconciler
}

func NewApplyCustomerActionCommandHandler(
	uowFactory UoWFactory,
	table order.Table,
	logger *slog.Logger,
	opts ...ReconcileOption,
) ApplyCustomerActionCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ApplyCustomerActionCommandHandler{
		reconciler: newReconciler(uowFactory, table, logger.With("component", "customer_reconciler"), opts),
	}
}

func (h ApplyCustomerActionCommandHandler) Handle(
	ctx context.Context,
	cmd ApplyCustomerActionCommand,
) (ReconcileResult, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "ApplyCustomerAction")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", cmd.OrderID().String()),
		attribute.String("order.event", cmd.Event().String()),
	)

	result, err := h.apply(ctx, applyRequest{
		path:    metrics.PathCustomer,
		origin:  order.OriginCustomer,
		orderID: cmd.OrderID(),
		event:   cmd.Event(),
	}, ReconcileResult{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.ErrorContext(ctx, "Customer action failed",
			"orderId", cmd.OrderID().String(), "event", cmd.Event().String(), "error", err)
		return ReconcileResult{}, err
	}

	span.SetAttributes(attribute.String("reconcile.outcome", result.Outcome()))
	if !result.Success {
		span.SetStatus(codes.Error, result.Failure.String())
	}
	h.record(ctx, metrics.PathCustomer, started, result)
	return result, nil
}
