package app

import (
	"sync"
	"time"

	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/engine"
	"quiz-cricket-service/internal/questions"
)

// QuestionView is the question as shown to players: no correct index.
// DisabledChoice is the batter's wrong pick during the bowler's turn.
type QuestionView struct {
	ID             int      `json:"id"`
	Text           string   `json:"text"`
	Choices        []string `json:"choices"`
	Runs           int      `json:"runs"`
	DisabledChoice int      `json:"disabledChoice"`
}

// Snapshot is a consistent read of a live match for transports to render.
type Snapshot struct {
	MatchID        string                 `json:"matchId"`
	Stage          domain.TournamentStage `json:"tournamentStage"`
	TeamAName      string                 `json:"teamAName"`
	TeamBName      string                 `json:"teamBName"`
	PlayersA       []string               `json:"playersA"`
	PlayersB       []string               `json:"playersB"`
	BattingFirst   domain.TeamSide        `json:"battingFirst"`
	State          engine.State           `json:"state"`
	SelectedBatter int                    `json:"selectedBatter"`
	SelectedBowler int                    `json:"selectedBowler"`
	Phase          string                 `json:"phase"`
	Question       *QuestionView          `json:"question,omitempty"`
	AvailableBalls []int                  `json:"availableBalls"`
	Target         int                    `json:"target,omitempty"`
	RunRate        float64                `json:"runRate"`
	Degraded       bool                   `json:"degraded,omitempty"`
	Deadline       time.Time              `json:"deadline,omitempty"`
}

// OutcomeEvent describes one resolved ball for popups and celebrations.
type OutcomeEvent struct {
	Result       domain.DeliveryResult `json:"result"`
	Runs         int                   `json:"runs"`
	Boundary     engine.Boundary       `json:"boundary,omitempty"`
	ExtraType    domain.ExtraType      `json:"extraType,omitempty"`
	InningsEnded bool                  `json:"inningsEnded,omitempty"`
	Target       int                   `json:"target,omitempty"`
	GameOver     bool                  `json:"gameOver,omitempty"`
	Winner       string                `json:"winner,omitempty"`
	Saved        bool                  `json:"saved,omitempty"`
	SavedLocally bool                  `json:"savedLocally,omitempty"`
}

// Update is what subscribers receive: a fresh snapshot, plus the outcome
// when the update was caused by a resolved ball.
type Update struct {
	Snapshot Snapshot      `json:"snapshot"`
	Outcome  *OutcomeEvent `json:"outcome,omitempty"`
}

// Session is one live match: the engine, its resolver, the question pools
// and the transient selections the players must redo every ball.
type Session struct {
	id string

	mu          sync.Mutex
	match       *engine.Match
	resolver    *engine.Resolver
	pools       questions.Pools
	degraded    bool
	selBatter   int
	selBowler   int
	deadline    time.Time
	cancelTimer func()
	timerSeq    int
	subscribers map[chan Update]struct{}
}

// NewSession wraps a match and its question pools in a live session.
func NewSession(id string, match *engine.Match, pools questions.Pools, degraded bool) *Session {
	return &Session{
		id:          id,
		match:       match,
		resolver:    engine.NewResolver(match.Rules()),
		pools:       pools,
		degraded:    degraded,
		selBatter:   -1,
		selBowler:   -1,
		subscribers: make(map[chan Update]struct{}),
	}
}

// ID returns the session's match ID.
func (s *Session) ID() string { return s.id }

// GameOver reports whether the session's match has been decided.
func (s *Session) GameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.GameOver()
}

func (s *Session) subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := Update{Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked fans an update out to all subscribers, dropping the
// stalest entry when a slow receiver's buffer is full.
func (s *Session) broadcastLocked(outcome *OutcomeEvent) {
	u := Update{Snapshot: s.snapshotLocked(), Outcome: outcome}
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	state := s.match.State()
	teamA, teamB := s.match.TeamNames()
	snap := Snapshot{
		MatchID:        s.id,
		Stage:          s.match.Stage(),
		TeamAName:      teamA,
		TeamBName:      teamB,
		PlayersA:       s.match.Players(domain.TeamA),
		PlayersB:       s.match.Players(domain.TeamB),
		BattingFirst:   s.match.BattingFirst(),
		State:          state,
		SelectedBatter: s.selBatter,
		SelectedBowler: s.selBowler,
		Phase:          s.resolver.Phase().String(),
		Target:         s.match.Target(),
		RunRate:        s.match.RunRate(),
		Degraded:       s.degraded,
		Deadline:       s.deadline,
	}
	pool := s.pools.ForInnings(state.Innings)
	for _, q := range pool {
		used := false
		for _, id := range state.UsedBalls {
			if id == q.ID {
				used = true
				break
			}
		}
		if !used {
			snap.AvailableBalls = append(snap.AvailableBalls, q.ID)
		}
	}
	if q, ok := s.resolver.Pending(); ok {
		snap.Question = &QuestionView{
			ID:             q.ID,
			Text:           q.Text,
			Choices:        append([]string(nil), q.Choices...),
			Runs:           q.Runs,
			DisabledChoice: s.resolver.DisabledChoice(),
		}
	}
	return snap
}

func (s *Session) stopTimerLocked() {
	s.timerSeq++
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	s.deadline = time.Time{}
}
