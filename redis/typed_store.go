package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/srag/cache"
	"github.com/kbukum/srag/errors"
	"github.com/kbukum/srag/observability"
)

// TypedStore keeps JSON-serialized values in Redis. It implements
// cache.Store[V].
type TypedStore[V any] struct {
	client    *Client
	keyPrefix string
}

// NewTypedStore returns a store whose keys are prefixed with keyPrefix
// followed by a colon.
func NewTypedStore[V any](client *Client, keyPrefix string) *TypedStore[V] {
	return &TypedStore[V]{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *TypedStore[V]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load returns (nil, nil) if the key doesn't exist.
func (s *TypedStore[V]) Load(ctx context.Context, key string) (*V, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCache)
	defer span.End()
	observability.SetAttribute(span, "cache.backend", "redis")

	raw, ok, err := s.client.Get(ctx, s.fullKey(key))
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, errors.ExternalServiceError("redis", fmt.Errorf("typed store load %q: %w", key, err))
	}
	observability.SetAttribute(span, "cache.hit", ok)
	if !ok {
		return nil, nil
	}

	var val V
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, errors.Internal(fmt.Errorf("typed store unmarshal %q: %w", key, err))
	}
	return &val, nil
}

// Save serializes val and stores it with ttl. A ttl of 0 means no expiration.
func (s *TypedStore[V]) Save(ctx context.Context, key string, val *V, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Internal(fmt.Errorf("typed store marshal %q: %w", key, err))
	}
	if err := s.client.Set(ctx, s.fullKey(key), string(data), ttl); err != nil {
		return errors.ExternalServiceError("redis", fmt.Errorf("typed store save %q: %w", key, err))
	}
	return nil
}

// Delete removes the key.
func (s *TypedStore[V]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return errors.ExternalServiceError("redis", fmt.Errorf("typed store delete %q: %w", key, err))
	}
	return nil
}

var _ cache.Store[any] = (*TypedStore[any])(nil)
