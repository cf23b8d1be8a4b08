package commands

import (
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	DefaultRelayBatchSize = 100
	maxRelayBatchSize     = 1000
)

var ErrRelayNotificationsCommandIsNotConstructed = errors.New(
	"RelayNotificationsCommand must be created via NewRelayNotificationsCommand constructor",
)

// RelayNotificationsCommand asks for one batch of pending outbox entries to be published.
type RelayNotificationsCommand struct { //nolint:recvcheck //using for validation
	batchSize int

	guard guard.ConstructorGuard
}

func NewRelayNotificationsCommand(batchSize int) (RelayNotificationsCommand, error) {
	if batchSize < 1 || batchSize > maxRelayBatchSize {
		return RelayNotificationsCommand{}, errs.NewValueIsOutOfRangeError("batch size", batchSize, 1, maxRelayBatchSize)
	}
	return RelayNotificationsCommand{
		batchSize: batchSize,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c RelayNotificationsCommand) Validate() error {
	return c.guard.Validate(ErrRelayNotificationsCommandIsNotConstructed)
}

func (c RelayNotificationsCommand) BatchSize() int {
	return c.batchSize
}
