package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-cricket-service/internal/app"
)

const sessionKeyPrefix = "match:session:"

// SessionStore keeps live sessions in process memory (they carry mutexes,
// timers and subscriber channels and cannot be serialized) while mirroring
// a liveness key per session into redis so operators can enumerate active
// matches across restarts.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(sess *app.Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, sessionKey(sess.ID()), time.Now().Unix(), s.ttl).Err(); err != nil {
		// liveness mirror only; the in-memory session is authoritative
		log.Printf("redis: failed to record session %s: %v", sess.ID(), err)
	}
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		log.Printf("redis: failed to drop session key %s: %v", id, err)
	}
}

// ActiveSessions lists the ids currently mirrored in redis.
func (s *SessionStore) ActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, sessionKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(sessionKeyPrefix):])
	}
	return ids, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
