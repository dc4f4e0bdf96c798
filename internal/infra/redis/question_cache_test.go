package redis

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quiz-cricket-service/internal/domain"
)

type countingLoader struct {
	calls int32
	bank  []domain.Question
}

func (l *countingLoader) LoadBank(context.Context) ([]domain.Question, error) {
	atomic.AddInt32(&l.calls, 1)
	return append([]domain.Question(nil), l.bank...), nil
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testBank() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "q1", Choices: []string{"a", "b"}, CorrectIndex: 0, Runs: 2, Stage: domain.StageGroup},
		{ID: 2, Text: "q2", Choices: []string{"a", "b"}, CorrectIndex: 1, Runs: 6, Stage: domain.StagePlayoffs},
	}
}

func TestQuestionCacheLoadsOnceWithinTTL(t *testing.T) {
	_, client := newTestClient(t)
	loader := &countingLoader{bank: testBank()}
	cache := NewQuestionCache(client, loader, time.Minute)

	for i := 0; i < 3; i++ {
		bank, err := cache.Bank(context.Background())
		if err != nil {
			t.Fatalf("Bank: %v", err)
		}
		if len(bank) != 2 {
			t.Fatalf("expected 2 questions, got %d", len(bank))
		}
	}
	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("expected 1 loader call, got %d", got)
	}
}

func TestQuestionCacheReloadsAfterExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	loader := &countingLoader{bank: testBank()}
	cache := NewQuestionCache(client, loader, time.Minute)

	if _, err := cache.Bank(context.Background()); err != nil {
		t.Fatalf("Bank: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.Bank(context.Background()); err != nil {
		t.Fatalf("Bank after expiry: %v", err)
	}
	if got := atomic.LoadInt32(&loader.calls); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
}

func TestQuestionCacheRecoversFromCorruptEntry(t *testing.T) {
	mr, client := newTestClient(t)
	loader := &countingLoader{bank: testBank()}
	cache := NewQuestionCache(client, loader, time.Minute)

	if err := mr.Set(bankKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	bank, err := cache.Bank(context.Background())
	if err != nil {
		t.Fatalf("Bank: %v", err)
	}
	if len(bank) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank))
	}

	raw, err := mr.Get(bankKey)
	if err != nil {
		t.Fatalf("read cache key: %v", err)
	}
	var cached []domain.Question
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("cache entry not repaired: %v", err)
	}
}

func TestQuestionCacheInvalidate(t *testing.T) {
	_, client := newTestClient(t)
	loader := &countingLoader{bank: testBank()}
	cache := NewQuestionCache(client, loader, time.Minute)

	if _, err := cache.Bank(context.Background()); err != nil {
		t.Fatalf("Bank: %v", err)
	}
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := cache.Bank(context.Background()); err != nil {
		t.Fatalf("Bank after invalidate: %v", err)
	}
	if got := atomic.LoadInt32(&loader.calls); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
}
