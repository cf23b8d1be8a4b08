// Package notification models a customer notification waiting in the outbox.
//
// A Notification is created in the same transaction as the status change that
// caused it and is published later by the relay job. Identifiers are ULIDs, so
// pending notifications sort in creation order.
package notification
