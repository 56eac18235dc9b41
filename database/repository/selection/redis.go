// Package selectionRepo persists integration provider selections.
package selectionRepo

import (
	"context"
	"fmt"

	"meramarket/services/integrations"
	"meramarket/utils"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps one key per category.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, category integrations.Category) (string, error) {
	name, err := s.client.Get(ctx, utils.SelectionKeyPrefix+string(category)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s selection: %w", category, err)
	}
	return name, nil
}

func (s *RedisStore) Set(ctx context.Context, category integrations.Category, provider string) error {
	if err := s.client.Set(ctx, utils.SelectionKeyPrefix+string(category), provider, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s selection: %w", category, err)
	}
	return nil
}
