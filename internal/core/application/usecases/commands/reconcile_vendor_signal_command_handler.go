package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/vendor"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("fulfillment/internal/core/application/usecases/commands")

type (
	// SignatureVerifier authenticates a webhook body.
	SignatureVerifier interface {
		Verify(secret []byte, timestamp string, payload []byte, signature string) error
	}

	// StatusResolver translates a raw vendor status.
	StatusResolver interface {
		Resolve(vendorID kernel.VendorID, rawStatus string) (vendor.Resolution, bool)
	}
)

// ReconcileVendorSignalCommandHandler applies a vendor webhook to the order it names.
//
// The handler runs these steps and stops at the first rejection:
//   - verify the HMAC signature with the vendor's secret
//   - decode the payload and match its vendor against the URL
//   - resolve the raw status through the mapping registry
//   - load the order, apply the event and store it with its notification
//
// Rejections are returned as a ReconcileResult with a FailureKind; the returned error
// is reserved for infrastructure failures such as an unreachable database.
//
// Example:
//
//	cmd, err := NewReconcileVendorSignalCommand(vendorID, body, sigHeader, tsHeader)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	if !result.Success {
//	    log.Printf("rejected: %s", result.Failure)
//	}
type ReconcileVendorSignalCommandHandler struct {
	reconciler
	secrets  ports.VendorSecretStore
	verifier SignatureVerifier
	resolver StatusResolver
}

func NewReconcileVendorSignalCommandHandler(
	uowFactory UoWFactory,
	table order.Table,
	secrets ports.VendorSecretStore,
	verifier SignatureVerifier,
	resolver StatusResolver,
	logger *slog.Logger,
	opts ...ReconcileOption,
) ReconcileVendorSignalCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ReconcileVendorSignalCommandHandler{
		reconciler: newReconciler(uowFactory, table, logger.With("component", "vendor_reconciler"), opts),
		secrets:    secrets,
		verifier:   verifier,
		resolver:   resolver,
	}
}

func (h ReconcileVendorSignalCommandHandler) Handle(
	ctx context.Context,
	cmd ReconcileVendorSignalCommand,
) (ReconcileResult, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "ReconcileVendorSignal")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", cmd.VendorID().String()))

	result, err := h.handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.ErrorContext(ctx, "Signal reconciliation failed",
			"vendorId", cmd.VendorID().String(), "error", err)
		return ReconcileResult{}, err
	}

	span.SetAttributes(
		attribute.String("order.id", result.OrderID.String()),
		attribute.String("reconcile.outcome", result.Outcome()),
	)
	if !result.Success {
		span.SetStatus(codes.Error, result.Failure.String())
	}
	h.record(ctx, metrics.PathVendor, started, result)
	return result, nil
}

func (h ReconcileVendorSignalCommandHandler) handle(
	ctx context.Context,
	cmd ReconcileVendorSignalCommand,
) (ReconcileResult, error) {
	result := ReconcileResult{VendorID: cmd.VendorID()}
	payload := cmd.Payload()

	secret, err := h.secrets.GetSecret(ctx, cmd.VendorID())
	if errors.Is(err, ports.ErrSecretNotFound) {
		return result.fail(FailureSignatureValidation, err), nil
	}
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("load secret of vendor %s: %w", cmd.VendorID(), err)
	}

	if err = h.verifier.Verify(secret, cmd.Timestamp(), payload, cmd.Signature()); err != nil {
		return result.fail(FailureSignatureValidation, err), nil
	}

	signal, err := vendor.ParseSignal(payload)
	if err != nil {
		return result.fail(FailureMalformedSignal, err), nil
	}
	result.OrderID = signal.OrderID
	result.RawStatus = signal.RawStatus

	if !signal.VendorID.IsEqual(cmd.VendorID()) {
		return result.fail(FailureVendorMismatch,
			fmt.Errorf("payload vendor %s does not match endpoint vendor %s", signal.VendorID, cmd.VendorID())), nil
	}

	resolution, ok := h.resolver.Resolve(cmd.VendorID(), signal.RawStatus)
	if !ok {
		return result.fail(FailureUnknownVendorStatus,
			fmt.Errorf("vendor %s sent unknown status %q", cmd.VendorID(), signal.RawStatus)), nil
	}
	result.Event = resolution.Event

	vendorID := cmd.VendorID()
	return h.apply(ctx, applyRequest{
		path:     metrics.PathVendor,
		origin:   order.OriginVendor,
		orderID:  signal.OrderID,
		vendorID: &vendorID,
		event:    resolution.Event,
		details:  signal.Shipment(),
		note:     signal.Details.Message,
	}, result)
}
