package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/infra/memory"
)

const bankKey = "questions:bank"

// QuestionCache keeps the serialized question bank in redis so several
// service instances share one copy. Cache misses fall through to the
// loader; concurrent misses collapse into a single load.
type QuestionCache struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionCache(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{client: client, loader: loader, ttl: ttl}
}

func (c *QuestionCache) Bank(ctx context.Context) ([]domain.Question, error) {
	raw, err := c.client.Get(ctx, bankKey).Bytes()
	if err == nil {
		var bank []domain.Question
		if err := json.Unmarshal(raw, &bank); err == nil {
			return bank, nil
		}
		// poisoned entry; drop it and reload
		log.Printf("redis: corrupt question bank cache, reloading")
		c.client.Del(ctx, bankKey)
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read question bank cache: %w", err)
	}

	result, err, _ := c.sf.Do(bankKey, func() (interface{}, error) {
		bank, err := c.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(bank)
		if err != nil {
			return nil, fmt.Errorf("encode question bank: %w", err)
		}
		if err := c.client.Set(ctx, bankKey, raw, c.ttl).Err(); err != nil {
			log.Printf("redis: failed to cache question bank: %v", err)
		}
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached bank so the next read reloads it.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, bankKey).Err()
}
