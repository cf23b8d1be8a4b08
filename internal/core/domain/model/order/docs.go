// Package order provides the canonical order lifecycle of the fulfillment service.
//
// The package includes:
//   - Status: the closed vocabulary of canonical order states
//   - Event: the names of the signals that move an order between states
//   - Table: the declarative, validated list of legal transitions
//   - StateMachine: a single-order, in-memory evaluator of the table
//   - Order: the persisted aggregate that applies events through a StateMachine
//
// Lifecycle:
//
//	Pending ──vendor_accepted──> Prepress ──files_approved──> Production ──order_shipped──> Shipped ──order_delivered──> Delivered
//	                                │  ▲
//	    bad_files_detected, ...     ▼  │ files_resubmitted
//	                             OnHold_*
//
//	Pending, Prepress, OnHold_* ──order_cancelled──> Cancelled
//
// Delivered and Cancelled are terminal. The table is the single source of truth for
// legality; vendor webhooks and customer actions both go through it.
package order
