package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrConfigNotFound is returned when a workspace has no availability yet.
var ErrConfigNotFound = errors.New("availability: config not found")

// Store persists workspace availability configs in Redis. Updates go through
// Set, which re-validates the whole structure first.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new availability config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(workspaceID string) string {
	return fmt.Sprintf("availability:config:%s", workspaceID)
}

// Get retrieves the availability config for a workspace.
func (s *Store) Get(ctx context.Context, workspaceID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(workspaceID)).Bytes()
	if err == redis.Nil {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("availability: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("availability: unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Set validates and saves the config. An invalid config never reaches Redis.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("availability: marshal config: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(cfg.WorkspaceID), data, 0).Err(); err != nil {
		return fmt.Errorf("availability: set config: %w", err)
	}

	return nil
}
