package engine

import (
	"testing"
	"time"

	"quiz-cricket-service/internal/domain"
)

func question(runs int) domain.Question {
	return domain.Question{
		ID:           1,
		Text:         "Who bowled the first ball in World Cup history?",
		Choices:      []string{"a", "b", "c", "d"},
		CorrectIndex: 2,
		Runs:         runs,
	}
}

func TestTimerTiers(t *testing.T) {
	tiers := DefaultRules().Timer
	cases := []struct {
		runs int
		want time.Duration
	}{
		{1, 20 * time.Second},
		{2, 30 * time.Second},
		{3, 20 * time.Second},
		{4, 45 * time.Second},
		{5, 45 * time.Second},
		{6, 60 * time.Second},
		{8, 60 * time.Second},
	}
	for _, c := range cases {
		if got := tiers.ForRuns(c.runs); got != c.want {
			t.Fatalf("ForRuns(%d) = %v, want %v", c.runs, got, c.want)
		}
	}
}

func TestBatterCorrectResolvesImmediately(t *testing.T) {
	r := NewResolver(DefaultRules())

	out, d, err := r.SelectBall(question(4))
	if err != nil {
		t.Fatalf("SelectBall: %v", err)
	}
	if out != nil {
		t.Fatalf("normal question must not resolve on selection")
	}
	if d != 45*time.Second {
		t.Fatalf("expected 45s countdown for a 4-run question, got %v", d)
	}
	if r.Phase() != PhaseBatter {
		t.Fatalf("expected batter phase, got %s", r.Phase())
	}

	out, _, err = r.ApplyAnswer(2)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	if out == nil || !out.BatterCorrect || out.Runs != 4 {
		t.Fatalf("expected batter-correct outcome with 4 runs, got %+v", out)
	}
	if r.Phase() != PhaseIdle {
		t.Fatalf("resolver must return to idle")
	}
}

func TestBatterWrongHandsToBowler(t *testing.T) {
	r := NewResolver(DefaultRules())
	r.SelectBall(question(2))

	out, d, err := r.ApplyAnswer(0)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	if out != nil {
		t.Fatalf("ball must not resolve until the bowler answers")
	}
	if d != 30*time.Second {
		t.Fatalf("expected the bowler countdown re-armed at 30s, got %v", d)
	}
	if r.Phase() != PhaseBowler {
		t.Fatalf("expected bowler phase, got %s", r.Phase())
	}
	if r.DisabledChoice() != 0 {
		t.Fatalf("expected the batter's pick disabled, got %d", r.DisabledChoice())
	}

	out, _, err = r.ApplyAnswer(2)
	if err != nil {
		t.Fatalf("bowler answer: %v", err)
	}
	if out == nil || !out.BowlerCorrect {
		t.Fatalf("expected a wicket outcome, got %+v", out)
	}
}

func TestBowlerCannotReuseBatterPick(t *testing.T) {
	r := NewResolver(DefaultRules())
	r.SelectBall(question(1))
	r.ApplyAnswer(0)

	if _, _, err := r.ApplyAnswer(0); err != domain.ErrChoiceDisabled {
		t.Fatalf("expected ErrChoiceDisabled, got %v", err)
	}

	// Any other wrong choice resolves to a dot.
	out, _, err := r.ApplyAnswer(1)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	if out == nil || out.BatterCorrect || out.BowlerCorrect {
		t.Fatalf("expected dot outcome, got %+v", out)
	}
}

func TestTimeoutIsWrongAnswer(t *testing.T) {
	r := NewResolver(DefaultRules())
	r.SelectBall(question(1))

	// Batter timeout hands over to the bowler.
	out, _, err := r.ApplyAnswer(-1)
	if err != nil || out != nil {
		t.Fatalf("batter timeout should pass to bowler, got out=%+v err=%v", out, err)
	}
	if r.DisabledChoice() != -1 {
		t.Fatalf("timeout must not disable any choice, got %d", r.DisabledChoice())
	}

	// Bowler timeout resolves as a dot.
	out, _, err = r.ApplyAnswer(-1)
	if err != nil {
		t.Fatalf("bowler timeout: %v", err)
	}
	if out == nil || out.BatterCorrect || out.BowlerCorrect {
		t.Fatalf("expected dot outcome, got %+v", out)
	}
}

func TestExtraResolvesOnSelection(t *testing.T) {
	r := NewResolver(DefaultRules())

	q := question(0)
	q.Type = domain.ExtraWide
	out, d, err := r.SelectBall(q)
	if err != nil {
		t.Fatalf("SelectBall: %v", err)
	}
	if out == nil || !out.IsExtra || out.ExtraType != domain.ExtraWide || out.ExtraRuns != 1 {
		t.Fatalf("expected immediate wide outcome, got %+v", out)
	}
	if d != 0 {
		t.Fatalf("extras never arm a countdown, got %v", d)
	}
	if r.Phase() != PhaseIdle {
		t.Fatalf("resolver must stay idle after an extra")
	}
}

func TestQuestionPendingGuard(t *testing.T) {
	r := NewResolver(DefaultRules())
	r.SelectBall(question(1))

	if _, _, err := r.SelectBall(question(2)); err != domain.ErrQuestionPending {
		t.Fatalf("expected ErrQuestionPending, got %v", err)
	}
}

func TestAnswerWithoutQuestion(t *testing.T) {
	r := NewResolver(DefaultRules())
	if _, _, err := r.ApplyAnswer(0); err != domain.ErrNoQuestionPending {
		t.Fatalf("expected ErrNoQuestionPending, got %v", err)
	}
}

func TestResetAbandonsQuestion(t *testing.T) {
	r := NewResolver(DefaultRules())
	r.SelectBall(question(1))
	r.Reset()

	if _, pending := r.Pending(); pending {
		t.Fatalf("expected no pending question after reset")
	}
	if r.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase after reset")
	}
}
