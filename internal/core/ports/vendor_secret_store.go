package ports

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
)

// ErrSecretNotFound is returned when no signing secret is configured for a vendor.
var ErrSecretNotFound = errors.New("vendor secret not found")

// VendorSecretStore resolves the shared HMAC secret a vendor signs webhooks with.
type VendorSecretStore interface {
	GetSecret(ctx context.Context, vendorID kernel.VendorID) ([]byte, error)
}
