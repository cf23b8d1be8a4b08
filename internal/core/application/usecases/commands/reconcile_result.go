package commands

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// FailureKind classifies a rejected signal. Rejections are expected outcomes and are
// reported through ReconcileResult; infrastructure problems are returned as errors.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureSignatureValidation
	FailureMalformedSignal
	FailureUnknownVendorStatus
	FailureOrderNotFound
	FailureVendorMismatch
	FailureInvalidTransition
	FailurePersistenceConflict
)

var failureNames = map[FailureKind]string{
	FailureNone:                "none",
	FailureSignatureValidation: "signature_validation",
	FailureMalformedSignal:     "malformed_signal",
	FailureUnknownVendorStatus: "unknown_vendor_status",
	FailureOrderNotFound:       "order_not_found",
	FailureVendorMismatch:      "vendor_mismatch",
	FailureInvalidTransition:   "invalid_transition",
	FailurePersistenceConflict: "persistence_conflict",
}

func (k FailureKind) String() string {
	if name, ok := failureNames[k]; ok {
		return name
	}
	return "unknown"
}

// ReconcileResult describes what happened to one signal.
//
// On success InternalStatus is the status the order is in afterwards. On failure
// Failure and Error explain the rejection and CurrentStatus holds the order's
// status when it was known.
type ReconcileResult struct {
	Success        bool
	Replayed       bool
	OrderID        kernel.UUID
	VendorID       kernel.VendorID
	RawStatus      string
	Event          order.Event
	PreviousStatus order.Status
	InternalStatus order.Status
	CurrentStatus  order.Status
	NotifyCustomer bool
	Attempts       int

	Failure FailureKind
	Error   error
}

// Outcome is a short label for metrics and logs.
func (r ReconcileResult) Outcome() string {
	switch {
	case r.Success && r.Replayed:
		return "replayed"
	case r.Success:
		return "applied"
	default:
		return r.Failure.String()
	}
}

func (r ReconcileResult) fail(kind FailureKind, err error) ReconcileResult {
	r.Success = false
	r.Replayed = false
	r.NotifyCustomer = false
	r.Failure = kind
	r.Error = err
	return r
}
