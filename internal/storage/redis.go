package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/walletbook/walletbook/internal/ledger"
)

// RedisStore keeps the snapshot JSON under a single key. The value never
// expires; the snapshot is the durable copy, not a cache.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore dials Redis and verifies connectivity before returning.
func NewRedisStore(ctx context.Context, url, key string) (*RedisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	if key == "" {
		return nil, fmt.Errorf("snapshot key is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load fetches the snapshot value. A missing key means no snapshot yet.
func (s *RedisStore) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ledger.Snapshot{}, false, nil
		}
		return ledger.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := decodeSnapshot(payload)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save overwrites the snapshot key.
func (s *RedisStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
