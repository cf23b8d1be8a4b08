package secrets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/secrets"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type MockSecretManagerClient struct {
	mock.Mock
}

func (m *MockSecretManagerClient) AccessSecretVersion(
	ctx context.Context,
	req *secretmanagerpb.AccessSecretVersionRequest,
	_ ...gax.CallOption,
) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	args := m.Called(ctx, req.GetName())
	resp, _ := args.Get(0).(*secretmanagerpb.AccessSecretVersionResponse)
	return resp, args.Error(1)
}

func (m *MockSecretManagerClient) Close() error {
	return m.Called().Error(0)
}

const acmeSecretName = "projects/print-prod/secrets/vendor-acme-webhook-secret/versions/latest"

func payload(data string) *secretmanagerpb.AccessSecretVersionResponse {
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(data)},
	}
}

func TestNewSecretManagerStore_RequiresProject(t *testing.T) {
	_, err := secrets.NewSecretManagerStore(t.Context(), " ", secrets.WithSecretManagerClient(new(MockSecretManagerClient)))
	require.Error(t, err)
}

func TestSecretManagerStore_FetchesAndCaches(t *testing.T) {
	client := new(MockSecretManagerClient)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, err := secrets.NewSecretManagerStore(t.Context(), "print-prod",
		secrets.WithSecretManagerClient(client),
		secrets.WithCacheTTL(time.Minute),
		secrets.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	client.On("AccessSecretVersion", mock.Anything, acmeSecretName).Return(payload("first"), nil).Once()

	secret, err := store.GetSecret(t.Context(), kernel.MustVendorID("acme"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), secret)

	now = now.Add(30 * time.Second)
	secret, err = store.GetSecret(t.Context(), kernel.MustVendorID("acme"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), secret, "Cached value should be served within the TTL")

	client.On("AccessSecretVersion", mock.Anything, acmeSecretName).Return(payload("rotated"), nil).Once()
	now = now.Add(time.Minute)
	secret, err = store.GetSecret(t.Context(), kernel.MustVendorID("acme"))
	require.NoError(t, err)
	assert.Equal(t, []byte("rotated"), secret)

	client.AssertExpectations(t)
}

func TestSecretManagerStore_Invalidate(t *testing.T) {
	client := new(MockSecretManagerClient)
	store, err := secrets.NewSecretManagerStore(t.Context(), "print-prod", secrets.WithSecretManagerClient(client))
	require.NoError(t, err)

	client.On("AccessSecretVersion", mock.Anything, acmeSecretName).Return(payload("first"), nil).Once()
	client.On("AccessSecretVersion", mock.Anything, acmeSecretName).Return(payload("second"), nil).Once()

	_, err = store.GetSecret(t.Context(), kernel.MustVendorID("acme"))
	require.NoError(t, err)
	store.Invalidate(kernel.MustVendorID("acme"))
	secret, err := store.GetSecret(t.Context(), kernel.MustVendorID("acme"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), secret)
}

func TestSecretManagerStore_Errors(t *testing.T) {
	tests := []struct {
		name         string
		resp         *secretmanagerpb.AccessSecretVersionResponse
		err          error
		wantNotFound bool
	}{
		{"missing secret", nil, status.Error(codes.NotFound, "secret not found"), true},
		{"empty payload", payload(""), nil, true},
		{"permission denied", nil, status.Error(codes.PermissionDenied, "denied"), false},
		{"unavailable", nil, errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockSecretManagerClient)
			store, err := secrets.NewSecretManagerStore(t.Context(), "print-prod", secrets.WithSecretManagerClient(client))
			require.NoError(t, err)
			client.On("AccessSecretVersion", mock.Anything, acmeSecretName).Return(tt.resp, tt.err).Once()

			_, err = store.GetSecret(t.Context(), kernel.MustVendorID("acme"))

			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.Is(err, ports.ErrSecretNotFound))
		})
	}
}

func TestSecretManagerStore_Close(t *testing.T) {
	client := new(MockSecretManagerClient)
	store, err := secrets.NewSecretManagerStore(t.Context(), "print-prod", secrets.WithSecretManagerClient(client))
	require.NoError(t, err)
	client.On("Close").Return(nil).Once()

	require.NoError(t, store.Close())
	client.AssertExpectations(t)
}
