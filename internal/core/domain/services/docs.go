// Package services holds domain logic that does not belong to a single aggregate.
//
// The package includes:
//   - SignatureVerifier: HMAC-SHA256 verification of vendor webhook payloads
//   - CustomerMessage: the customer-facing text for an order's current status
//
// Both are pure: secrets are fetched by the caller and nothing here performs I/O.
package services
