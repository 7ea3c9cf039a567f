package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

// RedisConfig holds connection settings for the Redis state mirror.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// RedisStateStore keeps the whole session state as one JSON value
// under a single key.
type RedisStateStore struct {
	client *redis.Client
	key    string
}

// NewRedisStateStore connects to Redis and verifies the connection.
func NewRedisStateStore(cfg RedisConfig) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "radio_state"
	}

	return &RedisStateStore{client: client, key: key}, nil
}

// Load retrieves the mirrored state. Returns nil when the key is absent.
func (s *RedisStateStore) Load(ctx context.Context) (*domain.SessionState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get state from redis: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// Save overwrites the mirrored state.
func (s *RedisStateStore) Save(ctx context.Context, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStateStore implements StateStore interface
var _ StateStore = (*RedisStateStore)(nil)
