// Package secrets resolves vendor webhook signing secrets.
//
// StaticStore serves secrets from configuration, SecretManagerStore reads them from
// Google Secret Manager, and ChainStore consults several stores in order.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// StaticStore holds secrets parsed at startup. It is safe for concurrent reads.
type StaticStore struct {
	secrets map[string][]byte
}

// NewStaticStore copies secrets keyed by normalized vendor id.
func NewStaticStore(secrets map[string]string) (*StaticStore, error) {
	store := &StaticStore{secrets: make(map[string][]byte, len(secrets))}
	for rawVendor, secret := range secrets {
		vendorID, err := kernel.NewVendorID(rawVendor)
		if err != nil {
			return nil, fmt.Errorf("vendor secret %q: %w", rawVendor, err)
		}
		if secret == "" {
			return nil, fmt.Errorf("vendor secret %q: secret is empty", rawVendor)
		}
		if _, dup := store.secrets[vendorID.String()]; dup {
			return nil, fmt.Errorf("vendor secret %q: configured twice", rawVendor)
		}
		store.secrets[vendorID.String()] = []byte(secret)
	}
	return store, nil
}

// ParseStaticStore reads a "vendor=secret,vendor=secret" list.
func ParseStaticStore(raw string) (*StaticStore, error) {
	pairs := make(map[string]string)
	for entry := range strings.SplitSeq(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		vendor, secret, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("vendor secret entry %q: expected vendor=secret", entry)
		}
		vendor = strings.TrimSpace(vendor)
		if _, dup := pairs[vendor]; dup {
			return nil, fmt.Errorf("vendor secret %q: configured twice", vendor)
		}
		pairs[vendor] = strings.TrimSpace(secret)
	}
	return NewStaticStore(pairs)
}

func (s *StaticStore) GetSecret(_ context.Context, vendorID kernel.VendorID) ([]byte, error) {
	secret, ok := s.secrets[vendorID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, vendorID)
	}
	return append([]byte(nil), secret...), nil
}

// Len returns the number of configured vendors.
func (s *StaticStore) Len() int {
	return len(s.secrets)
}
