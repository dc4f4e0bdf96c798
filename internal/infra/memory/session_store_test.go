package memory

import (
	"math/rand"
	"testing"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/engine"
	"quiz-cricket-service/internal/questions"
)

func newTestSession(t *testing.T) *app.Session {
	t.Helper()
	bank, err := questions.Bank()
	if err != nil {
		t.Fatalf("Bank: %v", err)
	}
	pools, _, err := questions.Generate(bank, domain.StageGroup, questions.DefaultPoolConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	match := engine.New(engine.Config{
		TeamAName:    "Lions",
		TeamBName:    "Tigers",
		PlayersA:     []string{"A1", "A2"},
		PlayersB:     []string{"B1", "B2"},
		BattingFirst: domain.TeamA,
		Stage:        domain.StageGroup,
		Rules:        engine.DefaultRules(),
	})
	return app.NewSession("sess-1", match, pools, false)
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	sess := newTestSession(t)

	store.Create(sess)

	got, ok := store.Get(sess.ID())
	if !ok {
		t.Fatalf("Get: session not found")
	}
	if got != sess {
		t.Fatalf("Get returned a different session")
	}

	store.Delete(sess.ID())
	if _, ok := store.Get(sess.ID()); ok {
		t.Fatalf("expected session gone after delete")
	}
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store := NewSessionStore()
	if _, ok := store.Get("nope"); ok {
		t.Fatalf("expected no session")
	}
}
