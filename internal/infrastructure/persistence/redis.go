package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

// RedisSnapshotStore persists snapshots in Redis. This is suitable for
// shared-terminal deployments where several POS clients need to see the
// same cart state.
type RedisSnapshotStore struct {
	client    *redis.Client
	keyPrefix string
	storeKey  string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// snapshotTTL bounds how long an abandoned cart survives in Redis.
const snapshotTTL = 30 * 24 * time.Hour

// NewRedisSnapshotStore creates a Redis-backed snapshot store.
func NewRedisSnapshotStore(cfg RedisConfig, storeKey string) (*RedisSnapshotStore, error) {
	if storeKey == "" {
		return nil, fmt.Errorf("snapshot store key cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSnapshotStore{
		client:    client,
		keyPrefix: "cart:snapshot:",
		storeKey:  storeKey,
		ttl:       snapshotTTL,
	}, nil
}

// NewRedisSnapshotStoreWithClient creates a store with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSnapshotStoreWithClient(client *redis.Client, storeKey string) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client:    client,
		keyPrefix: "cart:snapshot:",
		storeKey:  storeKey,
		ttl:       snapshotTTL,
	}
}

func (s *RedisSnapshotStore) key() string {
	return s.keyPrefix + s.storeKey
}

// Load fetches and decodes the snapshot. (nil, nil) when the key is absent.
func (s *RedisSnapshotStore) Load(ctx context.Context) (*cartapp.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

// Save stores the snapshot with the abandonment TTL.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap cartapp.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
