package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxAttempts bounds load, apply and store cycles lost to concurrent writers.
const DefaultMaxAttempts = 3

// ErrEventOriginMismatch is reported when an event arrives through the wrong ingress path.
var ErrEventOriginMismatch = errors.New("event cannot be raised through this path")

// ReconcileOption customises the reconciliation handlers.
type ReconcileOption func(*reconciler)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) ReconcileOption {
	return func(r *reconciler) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// WithRetryBackOff replaces the backoff between conflicting attempts.
func WithRetryBackOff(newBackOff func() backoff.BackOff) ReconcileOption {
	return func(r *reconciler) {
		if newBackOff != nil {
			r.newBackOff = newBackOff
		}
	}
}

// WithNow replaces time.Now for notification timestamps.
func WithNow(now func() time.Time) ReconcileOption {
	return func(r *reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// reconciler performs the load, apply, store cycle shared by the vendor and customer paths.
type reconciler struct {
	uowFactory  UoWFactory
	table       order.Table
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

func newReconciler(uowFactory UoWFactory, table order.Table, logger *slog.Logger, opts []ReconcileOption) reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := reconciler{
		uowFactory:  uowFactory,
		table:       table,
		logger:      logger,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = 200 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}
	return r
}

type applyRequest struct {
	path     string
	origin   order.Origin
	orderID  kernel.UUID
	vendorID *kernel.VendorID
	event    order.Event
	details  order.ShipmentDetails
	note     string
}

// errRejected stops the retry loop on a domain rejection already recorded in the result.
var errRejected = errors.New("rejected")

// apply runs attempts until one commits, the signal is rejected, or conflicts exhaust
// the attempt budget. base carries the fields known before the order was loaded.
func (r reconciler) apply(ctx context.Context, req applyRequest, base ReconcileResult) (ReconcileResult, error) {
	result := base
	result.OrderID = req.orderID
	result.Event = req.event

	operation := func() error {
		result.Attempts++
		attempt, err := r.attempt(ctx, req, base)
		attempt.Attempts = result.Attempts
		result = attempt

		switch {
		case err == nil:
			return nil
		case errors.Is(err, errs.ErrVersionIsInvalid):
			metrics.IncVersionConflict(req.path)
			r.logger.InfoContext(ctx, "order changed concurrently, retrying",
				"orderId", req.orderID.String(), "event", req.event.String(), "attempt", result.Attempts)
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(operation, policy)

	switch {
	case err == nil, errors.Is(err, errRejected):
		return result, nil
	case errors.Is(err, errs.ErrVersionIsInvalid):
		return result.fail(FailurePersistenceConflict,
			fmt.Errorf("order %s: %d attempts lost to concurrent updates: %w", req.orderID, result.Attempts, err)), nil
	default:
		return result, err
	}
}

func (r reconciler) attempt(ctx context.Context, req applyRequest, base ReconcileResult) (ReconcileResult, error) {
	result := base
	result.OrderID = req.orderID
	result.Event = req.event

	uow := r.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return result, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, req.orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return result.fail(FailureOrderNotFound, err), errRejected
	}
	if err != nil {
		return result, err
	}

	result.CurrentStatus = o.Status()
	result.PreviousStatus = o.Status()
	if req.vendorID == nil {
		result.VendorID = o.VendorID()
	}

	if req.vendorID != nil && !req.vendorID.IsEqual(o.VendorID()) {
		return result.fail(FailureVendorMismatch,
			fmt.Errorf("order %s belongs to vendor %s", o.ID(), o.VendorID())), errRejected
	}

	if origin, ok := r.table.OriginOf(req.event); ok && origin != req.origin {
		return result.fail(FailureInvalidTransition,
			fmt.Errorf("%w: %s is %s-originated", ErrEventOriginMismatch, req.event, origin)), errRejected
	}

	loadedVersion := o.Version()
	transition, err := o.Apply(r.table, req.event, req.details)
	if err != nil {
		return result, err
	}
	if !transition.Success {
		return result.fail(FailureInvalidTransition, transition.Err), errRejected
	}

	result.Success = true
	result.Replayed = transition.Replayed
	result.InternalStatus = transition.NewStatus
	result.CurrentStatus = transition.NewStatus
	result.NotifyCustomer = transition.NotifyCustomer

	if transition.Replayed {
		return result, nil
	}

	if err = uow.OrderRepository().CompareAndSwap(ctx, o, loadedVersion); err != nil {
		return result, err
	}

	if transition.NotifyCustomer {
		message := services.CustomerMessage(o)
		if req.note != "" {
			message += " " + req.note
		}
		n, err := notification.NewNotification(o, message, r.now())
		if err != nil {
			return result, err
		}
		if err = uow.NotificationOutbox().Add(ctx, n); err != nil {
			return result, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return result, err
	}

	return result, nil
}

// record logs and counts the final outcome of one signal.
func (r reconciler) record(ctx context.Context, path string, started time.Time, result ReconcileResult) {
	metrics.ObserveReconcile(path, result.Outcome(), time.Since(started))

	attrs := []any{
		"path", path,
		"outcome", result.Outcome(),
		"orderId", result.OrderID.String(),
		"vendorId", result.VendorID.String(),
		"rawStatus", result.RawStatus,
		"event", result.Event.String(),
	}

	if !result.Success {
		attrs = append(attrs, "currentStatus", result.CurrentStatus.String(), "error", result.Error)
		r.logger.WarnContext(ctx, "Signal rejected", attrs...)
		return
	}

	attrs = append(attrs,
		"previousStatus", result.PreviousStatus.String(),
		"status", result.InternalStatus.String(),
		"notifyCustomer", result.NotifyCustomer,
		"attempts", result.Attempts,
	)
	r.logger.InfoContext(ctx, "Signal reconciled", attrs...)
}
