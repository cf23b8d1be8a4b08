package secrets

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// ChainStore asks each store in turn and returns the first secret found.
// Any error other than ports.ErrSecretNotFound stops the chain.
type ChainStore struct {
	stores []ports.VendorSecretStore
}

func NewChainStore(stores ...ports.VendorSecretStore) *ChainStore {
	return &ChainStore{stores: stores}
}

func (c *ChainStore) GetSecret(ctx context.Context, vendorID kernel.VendorID) ([]byte, error) {
	for _, store := range c.stores {
		secret, err := store.GetSecret(ctx, vendorID)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, ports.ErrSecretNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, vendorID)
}
