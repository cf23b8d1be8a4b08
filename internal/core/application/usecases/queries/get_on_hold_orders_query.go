package queries

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetOnHoldOrdersQueryIsNotConstructed = errors.New(
		"GetOnHoldOrdersQuery must be created via NewGetOnHoldOrdersQuery constructor",
	)
)

// GetOnHoldOrdersQuery lists every order waiting on the customer, oldest update first.
type GetOnHoldOrdersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetOnHoldOrdersQuery() GetOnHoldOrdersQuery {
	return GetOnHoldOrdersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetOnHoldOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetOnHoldOrdersQueryIsNotConstructed)
}
