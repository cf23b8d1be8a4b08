package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCacheTTL = 5 * time.Minute

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

type cachedSecret struct {
	value     []byte
	fetchedAt time.Time
}

// SecretManagerStore reads "vendor-<id>-webhook-secret" from a GCP project and
// caches the latest version for the configured TTL.
type SecretManagerStore struct {
	client  secretManagerClient
	project string
	ttl     time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

type secretManagerConfig struct {
	client     secretManagerClient
	clientOpts []option.ClientOption
	ttl        time.Duration
	now        func() time.Time
}

type SecretManagerOption func(*secretManagerConfig)

// WithSecretManagerClient injects a client instead of dialing Secret Manager.
func WithSecretManagerClient(client secretManagerClient) SecretManagerOption {
	return func(cfg *secretManagerConfig) { cfg.client = client }
}

func WithClientOptions(opts ...option.ClientOption) SecretManagerOption {
	return func(cfg *secretManagerConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// WithCacheTTL sets how long a fetched secret is reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) SecretManagerOption {
	return func(cfg *secretManagerConfig) { cfg.ttl = ttl }
}

func WithClock(now func() time.Time) SecretManagerOption {
	return func(cfg *secretManagerConfig) { cfg.now = now }
}

func NewSecretManagerStore(ctx context.Context, project string, opts ...SecretManagerOption) (*SecretManagerStore, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, errors.New("secret manager project is required")
	}

	cfg := secretManagerConfig{ttl: DefaultCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.client
	if client == nil {
		c, err := secretmanager.NewClient(ctx, cfg.clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create secret manager client: %w", err)
		}
		client = c
	}

	return &SecretManagerStore{
		client:  client,
		project: project,
		ttl:     cfg.ttl,
		now:     cfg.now,
		cache:   make(map[string]cachedSecret),
	}, nil
}

func (s *SecretManagerStore) GetSecret(ctx context.Context, vendorID kernel.VendorID) ([]byte, error) {
	key := vendorID.String()
	if secret, ok := s.cached(key); ok {
		return secret, nil
	}

	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName(vendorID),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, vendorID)
		}
		return nil, fmt.Errorf("access secret for vendor %s: %w", vendorID, err)
	}

	value := resp.GetPayload().GetData()
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: %s has an empty payload", ports.ErrSecretNotFound, vendorID)
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cache[key] = cachedSecret{value: append([]byte(nil), value...), fetchedAt: s.now()}
		s.mu.Unlock()
	}
	return append([]byte(nil), value...), nil
}

// Invalidate drops the cached secret of vendorID, e.g. after a rotation.
func (s *SecretManagerStore) Invalidate(vendorID kernel.VendorID) {
	s.mu.Lock()
	delete(s.cache, vendorID.String())
	s.mu.Unlock()
}

func (s *SecretManagerStore) Close() error {
	return s.client.Close()
}

func (s *SecretManagerStore) cached(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || s.now().Sub(entry.fetchedAt) >= s.ttl {
		return nil, false
	}
	return append([]byte(nil), entry.value...), true
}

func (s *SecretManagerStore) secretName(vendorID kernel.VendorID) string {
	return fmt.Sprintf("projects/%s/secrets/vendor-%s-webhook-secret/versions/latest", s.project, vendorID)
}
