package kernel

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

const maxVendorIDLength = 64

// ErrVendorIDIsNotConstructed is returned when validating a zero-value VendorID.
var ErrVendorIDIsNotConstructed = errs.NewValueIsRequiredError("VendorID must be created via NewVendorID")

// VendorID is the normalized key of a production vendor: trimmed, lower-cased,
// limited to letters, digits, '-' and '_'. Lookups in the mapping registry and the
// secret stores always use the normalized form, so "ACME" and "acme" are one vendor.
type VendorID struct {
	value string
}

// NewVendorID normalizes and validates raw.
func NewVendorID(raw string) (VendorID, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return VendorID{}, errs.NewValueIsRequiredError("vendorId")
	}
	if len(value) > maxVendorIDLength {
		return VendorID{}, errs.NewValueIsOutOfRangeError("vendorId length", len(value), 1, maxVendorIDLength)
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return VendorID{}, errs.NewValueIsInvalidErrorWithCause(
				"vendorId",
				fmt.Errorf("%q contains unsupported character %q", value, r),
			)
		}
	}
	return VendorID{value: value}, nil
}

// MustVendorID is NewVendorID for compile-time constants; it panics on invalid input.
func MustVendorID(raw string) VendorID {
	id, err := NewVendorID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (v VendorID) String() string {
	return v.value
}

func (v VendorID) IsEqual(other VendorID) bool {
	return v.value == other.value
}

// Validate rejects the zero value.
func (v VendorID) Validate() error {
	if v.value == "" {
		return ErrVendorIDIsNotConstructed
	}
	return nil
}
