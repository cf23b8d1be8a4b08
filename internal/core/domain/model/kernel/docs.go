// Package kernel provides the shared value objects of the fulfillment domain.
//
// The package includes:
//   - UUID: the internal order identifier, shared with vendors when an order is placed
//   - VendorID: the normalized key of a production vendor
//
// Both are immutable, and their zero values are invalid so that an uninitialized
// identifier is caught by Validate before it reaches persistence.
package kernel
