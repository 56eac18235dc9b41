// Package interestRepo stores listing interests and questions in Redis.
package interestRepo

import (
	"context"
	"encoding/json"
	"fmt"

	"meramarket/models"
	"meramarket/services/interest"
	"meramarket/utils"

	"github.com/go-redis/redis/v8"
)

var _ interest.Store = (*RedisStore)(nil)

// RedisStore keeps one list per listing and kind; LPUSH makes LRANGE return
// the newest record first.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) AddInterest(ctx context.Context, i *models.Interest) error {
	return push(ctx, s.client, utils.InterestKeyPrefix+i.ListingID, i)
}

func (s *RedisStore) ListInterests(ctx context.Context, listingID string) ([]models.Interest, error) {
	return list[models.Interest](ctx, s.client, utils.InterestKeyPrefix+listingID)
}

func (s *RedisStore) AddQuestion(ctx context.Context, q *models.Question) error {
	return push(ctx, s.client, utils.QuestionKeyPrefix+q.ListingID, q)
}

func (s *RedisStore) ListQuestions(ctx context.Context, listingID string) ([]models.Question, error) {
	return list[models.Question](ctx, s.client, utils.QuestionKeyPrefix+listingID)
}

func push(ctx context.Context, client *redis.Client, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

func list[T any](ctx context.Context, client *redis.Client, key string) ([]T, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return decodeAll[T](raw)
}

func decodeAll[T any](raw []string) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
