package engine

import (
	"time"

	"quiz-cricket-service/internal/domain"
)

// Phase is the resolver's answer-flow state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBatter
	PhaseBowler
)

func (p Phase) String() string {
	switch p {
	case PhaseBatter:
		return "batter"
	case PhaseBowler:
		return "bowler"
	default:
		return "idle"
	}
}

// Resolver is the per-ball answer state machine: Idle → BatterTurn →
// [BowlerTurn] → Idle. It is a pure transition machine; the countdown timer
// lives with the caller, which feeds a timeout in as a wrong answer. At most
// one question is pending at a time.
type Resolver struct {
	rules      Rules
	phase      Phase
	question   domain.Question
	batterPick int
}

// NewResolver returns an idle resolver using the given policy constants.
func NewResolver(rules Rules) *Resolver {
	return &Resolver{rules: rules, batterPick: -1}
}

// Phase returns the current answer-flow phase.
func (r *Resolver) Phase() Phase { return r.phase }

// Pending returns the active question while one is being answered.
func (r *Resolver) Pending() (domain.Question, bool) {
	return r.question, r.phase != PhaseIdle
}

// DisabledChoice returns the batter's wrong pick during the bowler's turn,
// so that option can be greyed out; -1 means none.
func (r *Resolver) DisabledChoice() int {
	if r.phase == PhaseBowler {
		return r.batterPick
	}
	return -1
}

// SelectBall starts resolving a question. Extras never enter the answer
// flow: the outcome is emitted immediately with the fixed bonus run. For
// normal questions the returned duration is the batter's countdown.
func (r *Resolver) SelectBall(q domain.Question) (*Outcome, time.Duration, error) {
	if r.phase != PhaseIdle {
		return nil, 0, domain.ErrQuestionPending
	}
	if q.IsExtra() {
		return &Outcome{
			IsExtra:    true,
			ExtraType:  q.Type,
			ExtraRuns:  r.rules.ExtraRun,
			QuestionID: q.ID,
		}, 0, nil
	}
	r.question = q
	r.phase = PhaseBatter
	r.batterPick = -1
	return nil, r.rules.Timer.ForRuns(q.Runs), nil
}

// ApplyAnswer feeds a choice from whichever side is on turn. A negative
// choice is a timeout and takes the identical wrong-answer path. When the
// batter fails, the returned duration re-arms the countdown for the bowler;
// a non-nil outcome means the ball is resolved and the resolver is idle.
func (r *Resolver) ApplyAnswer(choice int) (*Outcome, time.Duration, error) {
	switch r.phase {
	case PhaseBatter:
		if choice == r.question.CorrectIndex {
			out := &Outcome{BatterCorrect: true, Runs: r.question.Runs, QuestionID: r.question.ID}
			r.reset()
			return out, 0, nil
		}
		r.batterPick = choice
		r.phase = PhaseBowler
		return nil, r.rules.Timer.ForRuns(r.question.Runs), nil
	case PhaseBowler:
		if choice >= 0 && choice == r.batterPick {
			return nil, 0, domain.ErrChoiceDisabled
		}
		out := &Outcome{QuestionID: r.question.ID}
		if choice == r.question.CorrectIndex {
			out.BowlerCorrect = true
		}
		r.reset()
		return out, 0, nil
	default:
		return nil, 0, domain.ErrNoQuestionPending
	}
}

// Reset abandons any in-flight question, returning the resolver to idle.
// Used at innings transitions and session teardown.
func (r *Resolver) Reset() { r.reset() }

func (r *Resolver) reset() {
	r.phase = PhaseIdle
	r.question = domain.Question{}
	r.batterPick = -1
}
