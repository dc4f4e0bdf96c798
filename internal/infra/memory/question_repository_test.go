package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-cricket-service/internal/domain"
)

type countingLoader struct {
	calls int32
	bank  []domain.Question
	err   error
}

func (l *countingLoader) LoadBank(context.Context) ([]domain.Question, error) {
	atomic.AddInt32(&l.calls, 1)
	if l.err != nil {
		return nil, l.err
	}
	return append([]domain.Question(nil), l.bank...), nil
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "q1", Choices: []string{"a", "b"}, CorrectIndex: 0, Runs: 1, Stage: domain.StageGroup},
		{ID: 2, Text: "q2", Choices: []string{"a", "b"}, CorrectIndex: 1, Runs: 4, Stage: domain.StageGroup},
	}
}

func TestQuestionRepositoryCachesWithinTTL(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 3; i++ {
		bank, err := repo.Bank(context.Background())
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

func TestQuestionRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	now := time.Now()
	repo.clock = func() time.Time { return now }

	if _, err := repo.Bank(context.Background()); err != nil {
		t.Fatalf("Bank: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.Bank(context.Background()); err != nil {
		t.Fatalf("Bank after expiry: %v", err)
	}
	if got := atomic.LoadInt32(&loader.calls); got != 2 {
		t.Fatalf("expected 2 loader calls, got %d", got)
	}
}

func TestQuestionRepositoryPropagatesLoaderError(t *testing.T) {
	wantErr := errors.New("store down")
	repo := NewQuestionRepository(&countingLoader{err: wantErr}, time.Minute)

	if _, err := repo.Bank(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestQuestionRepositoryCollapsesConcurrentLoads(t *testing.T) {
	loader := &countingLoader{bank: sampleBank()}
	repo := NewQuestionRepository(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Bank(context.Background()); err != nil {
				t.Errorf("Bank: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("expected 1 loader call, got %d", got)
	}
}

func TestStaticBankLoaderEmpty(t *testing.T) {
	loader := NewStaticBankLoader(nil)
	if _, err := loader.LoadBank(context.Background()); !errors.Is(err, domain.ErrBankTooSmall) {
		t.Fatalf("expected ErrBankTooSmall, got %v", err)
	}
}
