package queries_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetOrderStatusQuery_Valid(t *testing.T) {
	id := kernel.NewUUID()
	query, err := queries.NewGetOrderStatusQuery(id)
	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, id, query.OrderID())
}

func TestNewGetOrderStatusQuery_ZeroID(t *testing.T) {
	_, err := queries.NewGetOrderStatusQuery(kernel.UUID{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestGetOrderStatusQuery_NotConstructedViaConstructor(t *testing.T) {
	err := queries.GetOrderStatusQuery{}.Validate()
	assert.ErrorIs(t, err, queries.ErrGetOrderStatusQueryIsNotConstructed)
}

func TestNewGetOnHoldOrdersQuery_Valid(t *testing.T) {
	require.NoError(t, queries.NewGetOnHoldOrdersQuery().Validate())
}

func TestGetOnHoldOrdersQuery_NotConstructedViaConstructor(t *testing.T) {
	err := queries.GetOnHoldOrdersQuery{}.Validate()
	assert.ErrorIs(t, err, queries.ErrGetOnHoldOrdersQueryIsNotConstructed)
}
