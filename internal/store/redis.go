package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key snapshots are stored under when none is configured.
const DefaultRedisKey = "lumaura:portal_evolution:snapshot"

// RedisOptions configures a RedisSnapshotStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisSnapshotStore keeps the snapshot as one JSON value under a single key,
// so several service instances can share state.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore connects to Redis and verifies the connection.
func NewRedisSnapshotStore(ctx context.Context, opts RedisOptions) (*RedisSnapshotStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return newRedisSnapshotStore(client, opts.Key), nil
}

func newRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSnapshotStore{client: client, key: key}
}

// Load reads the snapshot key. A missing key is not an error.
func (s *RedisSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// Save overwrites the snapshot key.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
