package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/questions"
)

// BankLoader fetches the master question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the bank with a TTL to avoid repeated store
// hits; concurrent misses collapse into a single load.
type QuestionRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader BankLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Bank(ctx context.Context) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cached != nil && r.expiresAt.After(now) {
		bank := append([]domain.Question(nil), r.cached...)
		r.mu.RUnlock()
		return bank, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cached != nil && r.expiresAt.After(now) {
			bank := append([]domain.Question(nil), r.cached...)
			r.mu.RUnlock()
			return bank, nil
		}
		r.mu.RUnlock()

		bank, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = bank
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return append([]domain.Question(nil), bank...), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// EmbeddedBankLoader serves the question bank compiled into the binary.
type EmbeddedBankLoader struct{}

func NewEmbeddedBankLoader() *EmbeddedBankLoader { return &EmbeddedBankLoader{} }

func (*EmbeddedBankLoader) LoadBank(context.Context) ([]domain.Question, error) {
	return questions.Bank()
}

// StaticBankLoader is a loader backed by a fixed slice (tests/demos).
type StaticBankLoader struct {
	bank []domain.Question
}

func NewStaticBankLoader(bank []domain.Question) *StaticBankLoader {
	return &StaticBankLoader{bank: bank}
}

func (l *StaticBankLoader) LoadBank(context.Context) ([]domain.Question, error) {
	if len(l.bank) == 0 {
		return nil, domain.ErrBankTooSmall
	}
	return append([]domain.Question(nil), l.bank...), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
