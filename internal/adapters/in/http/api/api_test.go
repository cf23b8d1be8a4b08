package api_test

import (
	"testing"

	"fulfillment/internal/adapters/in/http/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := api.Load(t.Context())
	require.NoError(t, err)

	for _, path := range []string{
		"/api/v1/webhooks/vendors/{vendorId}",
		"/api/v1/orders",
		"/api/v1/orders/on-hold",
		"/api/v1/orders/{orderId}/status",
		"/api/v1/orders/{orderId}/actions",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
	for _, schema := range []string{"CreateOrderRequest", "CustomerActionRequest", "VendorSignal", "Envelope"} {
		assert.Contains(t, doc.Components.Schemas, schema)
	}
}

func TestDocument_ReturnsCopy(t *testing.T) {
	doc := api.Document()
	require.NotEmpty(t, doc)
	doc[0] = 'X'
	assert.NotEqual(t, byte('X'), api.Document()[0])
}
