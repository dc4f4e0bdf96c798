package engine

import (
	"time"

	"quiz-cricket-service/internal/domain"
)

// Outcome is the delivery resolver's terminal signal for one ball. Exactly
// one of the three shapes occurs: an extra (IsExtra), a batter success
// (BatterCorrect with Runs), or a batter failure where BowlerCorrect decides
// wicket vs dot ball.
type Outcome struct {
	BatterCorrect bool
	BowlerCorrect bool
	Runs          int
	IsExtra       bool
	ExtraType     domain.ExtraType
	ExtraRuns     int
	QuestionID    int
}

// Boundary is the observable four/six signal for the presentation layer.
type Boundary string

const (
	BoundaryNone Boundary = ""
	BoundaryFour Boundary = "four"
	BoundarySix  Boundary = "six"
)

// Result reports what a delivery did to the match, for display and
// persistence. It carries no authoritative state; State remains the truth.
type Result struct {
	Delivery     domain.Delivery
	Boundary     Boundary
	InningsEnded bool
	Target       int
	GameOver     bool
	Winner       string
}

// State is the authoritative match state, mutated only by Match methods.
// Balls counts legal deliveries only; extras never increment it. Overs is
// tracked incrementally as balls complete an over.
type State struct {
	Innings       int               `json:"innings"`
	BattingTeam   domain.TeamSide   `json:"battingTeam"`
	Runs          int               `json:"runs"`
	Wickets       int               `json:"wickets"`
	Overs         int               `json:"overs"`
	Balls         int               `json:"balls"`
	Extras        int               `json:"extras"`
	CurrentBatter int               `json:"currentBatter"`
	CurrentBowler int               `json:"currentBowler"`
	UsedBalls     []int             `json:"usedBalls"`
	FirstInnings  *domain.Score     `json:"firstInnings,omitempty"`
	GameOver      bool              `json:"gameOver"`
	Winner        string            `json:"winner,omitempty"`
	LockedA       []int             `json:"lockedBattersA"`
	LockedB       []int             `json:"lockedBattersB"`
	Deliveries    []domain.Delivery `json:"ballDetails"`
}

// Config describes a new match. Rosters must be non-empty; that is a setup
// precondition, not something the engine validates per delivery.
type Config struct {
	TeamAName    string
	TeamBName    string
	PlayersA     []string
	PlayersB     []string
	BattingFirst domain.TeamSide
	Stage        domain.TournamentStage
	Rules        Rules
	Now          func() time.Time
}

// Match owns per-ball resolution bookkeeping, innings transitions, chase
// arithmetic and end-of-match determination.
type Match struct {
	cfg   Config
	rules Rules
	now   func() time.Time
	state State
}

// New creates a match at the top of innings 1 with all counters zero.
func New(cfg Config) *Match {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rules.BallsPerInnings == 0 {
		cfg.Rules = DefaultRules()
	}
	m := &Match{cfg: cfg, rules: cfg.Rules, now: cfg.Now}
	m.state = State{
		Innings:       1,
		BattingTeam:   cfg.BattingFirst,
		CurrentBowler: lastIndex(m.bowlingPlayers()),
		UsedBalls:     []int{},
		LockedA:       []int{},
		LockedB:       []int{},
		Deliveries:    []domain.Delivery{},
	}
	return m
}

// Restore rebuilds a match from a persisted state snapshot (resume support).
func Restore(cfg Config, state State) *Match {
	m := New(cfg)
	m.state = state
	return m
}

// State returns a copy of the current match state.
func (m *Match) State() State {
	s := m.state
	s.UsedBalls = append([]int(nil), m.state.UsedBalls...)
	s.LockedA = append([]int(nil), m.state.LockedA...)
	s.LockedB = append([]int(nil), m.state.LockedB...)
	s.Deliveries = append([]domain.Delivery(nil), m.state.Deliveries...)
	if m.state.FirstInnings != nil {
		fi := *m.state.FirstInnings
		s.FirstInnings = &fi
	}
	return s
}

// Rules returns the match policy constants.
func (m *Match) Rules() Rules { return m.rules }

// Stage returns the tournament stage the match was created for.
func (m *Match) Stage() domain.TournamentStage { return m.cfg.Stage }

// TeamNames returns the two side names in A, B order.
func (m *Match) TeamNames() (string, string) { return m.cfg.TeamAName, m.cfg.TeamBName }

// Players returns a side's roster.
func (m *Match) Players(side domain.TeamSide) []string {
	if side == domain.TeamA {
		return m.cfg.PlayersA
	}
	return m.cfg.PlayersB
}

// BattingFirst returns the side that opened the batting.
func (m *Match) BattingFirst() domain.TeamSide { return m.cfg.BattingFirst }

// GameOver reports whether the match has been decided.
func (m *Match) GameOver() bool { return m.state.GameOver }

func (m *Match) battingPlayers() []string {
	if m.state.BattingTeam == domain.TeamA {
		return m.cfg.PlayersA
	}
	return m.cfg.PlayersB
}

func (m *Match) bowlingPlayers() []string {
	if m.state.BattingTeam == domain.TeamA {
		return m.cfg.PlayersB
	}
	return m.cfg.PlayersA
}

func (m *Match) teamName(side domain.TeamSide) string {
	if side == domain.TeamA {
		return m.cfg.TeamAName
	}
	return m.cfg.TeamBName
}

func (m *Match) locked() *[]int {
	if m.state.BattingTeam == domain.TeamA {
		return &m.state.LockedA
	}
	return &m.state.LockedB
}

// LockedBatters returns the out batters' roster indices for a side.
func (m *Match) LockedBatters(side domain.TeamSide) []int {
	if side == domain.TeamA {
		return append([]int(nil), m.state.LockedA...)
	}
	return append([]int(nil), m.state.LockedB...)
}

// BatterLocked reports whether the batting side's roster index is out.
func (m *Match) BatterLocked(idx int) bool {
	return contains(*m.locked(), idx)
}

// CheckBatter validates a striker selection against the current innings.
func (m *Match) CheckBatter(idx int) error {
	if idx < 0 || idx >= len(m.battingPlayers()) {
		return domain.ErrPlayerIndex
	}
	if m.BatterLocked(idx) {
		return domain.ErrBatterLocked
	}
	return nil
}

// CheckBowler validates a bowler selection.
func (m *Match) CheckBowler(idx int) error {
	if idx < 0 || idx >= len(m.bowlingPlayers()) {
		return domain.ErrPlayerIndex
	}
	return nil
}

// BallUsed reports whether a question ID was already consumed this innings.
func (m *Match) BallUsed(id int) bool {
	return contains(m.state.UsedBalls, id)
}

// BeginDelivery binds the striker and bowler for the next ball and consumes
// the question ID. The engine applies the eventual outcome against these
// indices, not whatever is selected afterward.
func (m *Match) BeginDelivery(batterIdx, bowlerIdx, questionID int) error {
	if m.state.GameOver {
		return domain.ErrMatchOver
	}
	if err := m.CheckBatter(batterIdx); err != nil {
		return err
	}
	if err := m.CheckBowler(bowlerIdx); err != nil {
		return err
	}
	if m.BallUsed(questionID) {
		return domain.ErrBallUsed
	}
	m.state.CurrentBatter = batterIdx
	m.state.CurrentBowler = bowlerIdx
	m.state.UsedBalls = append(m.state.UsedBalls, questionID)
	return nil
}

// ApplyDelivery folds one resolved outcome into the match state and runs the
// end-condition checks in priority order: all-out (wicket only), then early
// chase success (innings 2), then balls exhausted. Precondition: the match is
// not over; callers guard via BeginDelivery.
func (m *Match) ApplyDelivery(out Outcome) Result {
	s := &m.state
	batting := m.battingPlayers()
	bowling := m.bowlingPlayers()

	d := domain.Delivery{
		BallNumber: s.Balls + 1,
		Innings:    s.Innings,
		BatterName: playerName(batting, s.CurrentBatter),
		BowlerName: playerName(bowling, s.CurrentBowler),
		BatterTeam: m.teamName(s.BattingTeam),
		BowlerTeam: m.teamName(s.BattingTeam.Other()),
		QuestionID: out.QuestionID,
		Timestamp:  m.now(),
	}

	// Extras are not legal deliveries: bonus runs only, no ball consumed,
	// no end-condition checks.
	if out.IsExtra {
		bonus := out.ExtraRuns
		if bonus == 0 {
			bonus = m.rules.ExtraRun
		}
		d.Result = domain.ResultExtra
		d.RunsScored = bonus
		d.IsExtra = true
		d.ExtraType = out.ExtraType
		s.Runs += bonus
		s.Extras += bonus
		s.Deliveries = append(s.Deliveries, d)
		return Result{Delivery: d}
	}

	s.Balls++
	if s.Balls%m.rules.BallsPerOver == 0 {
		s.Overs++
	}

	res := Result{}
	switch {
	case out.BatterCorrect:
		d.Result = domain.ResultRuns
		d.RunsScored = out.Runs
		s.Runs += out.Runs
		if out.Runs >= 6 {
			res.Boundary = BoundarySix
		} else if out.Runs >= 4 {
			res.Boundary = BoundaryFour
		}
	case out.BowlerCorrect:
		d.Result = domain.ResultWicket
		s.Wickets++
		locked := m.locked()
		if !contains(*locked, s.CurrentBatter) {
			*locked = append(*locked, s.CurrentBatter)
		}
	default:
		d.Result = domain.ResultDot
	}
	s.Deliveries = append(s.Deliveries, d)
	res.Delivery = d

	// All out: reachable only off a wicket; ends the innings or match
	// regardless of how many legal balls remain.
	if out.BowlerCorrect && len(*m.locked()) >= len(batting) {
		if s.Innings == 1 {
			m.endFirstInnings(&res)
		} else {
			m.decideWinner(&res)
		}
		return res
	}

	if s.Innings == 2 && s.FirstInnings != nil {
		target := s.FirstInnings.Runs + 1
		res.Target = target
		// Chase complete: the batting side wins immediately, remaining
		// balls are never played.
		if s.Runs >= target {
			s.GameOver = true
			s.Winner = m.teamName(s.BattingTeam)
			res.GameOver = true
			res.Winner = s.Winner
			return res
		}
	}

	if s.Balls >= m.rules.BallsPerInnings {
		if s.Innings == 1 {
			m.endFirstInnings(&res)
		} else {
			m.decideWinner(&res)
		}
	}
	return res
}

// endFirstInnings snapshots the first-innings score (set exactly once),
// flips the batting side and resets the innings counters, locks and question
// pool for the chase.
func (m *Match) endFirstInnings(res *Result) {
	s := &m.state
	s.FirstInnings = &domain.Score{Runs: s.Runs, Wickets: s.Wickets, Overs: s.Overs}
	s.Innings = 2
	s.BattingTeam = s.BattingTeam.Other()
	s.Runs = 0
	s.Wickets = 0
	s.Overs = 0
	s.Balls = 0
	s.UsedBalls = []int{}
	s.LockedA = []int{}
	s.LockedB = []int{}
	s.CurrentBatter = 0
	s.CurrentBowler = lastIndex(m.bowlingPlayers())
	res.InningsEnded = true
	res.Target = s.FirstInnings.Runs + 1
}

// decideWinner compares the chase to the first-innings total: higher wins,
// level is a tie, lower hands it to the side that batted first.
func (m *Match) decideWinner(res *Result) {
	s := &m.state
	firstRuns := 0
	if s.FirstInnings != nil {
		firstRuns = s.FirstInnings.Runs
	}
	switch {
	case s.Runs > firstRuns:
		s.Winner = m.teamName(s.BattingTeam)
	case s.Runs < firstRuns:
		s.Winner = m.teamName(s.BattingTeam.Other())
	default:
		s.Winner = domain.WinnerTie
	}
	s.GameOver = true
	res.GameOver = true
	res.Winner = s.Winner
}

// Target returns the chase target, or 0 before innings 2.
func (m *Match) Target() int {
	if m.state.FirstInnings == nil {
		return 0
	}
	return m.state.FirstInnings.Runs + 1
}

// RunRate is the current innings run rate; derived, never stored.
func (m *Match) RunRate() float64 {
	overs := float64(m.state.Overs) + float64(m.state.Balls%m.rules.BallsPerOver)/float64(m.rules.BallsPerOver)
	if overs == 0 {
		return 0
	}
	return float64(m.state.Runs) / overs
}

// Record assembles the persisted match record. Scores land on the side that
// actually batted each innings.
func (m *Match) Record() domain.MatchRecord {
	s := m.state
	rec := domain.MatchRecord{
		TeamA:           domain.TeamRecord{Name: m.cfg.TeamAName, Players: m.cfg.PlayersA},
		TeamB:           domain.TeamRecord{Name: m.cfg.TeamBName, Players: m.cfg.PlayersB},
		BattingFirst:    m.cfg.BattingFirst,
		Winner:          s.Winner,
		GameOver:        s.GameOver,
		Timestamp:       m.now(),
		TournamentStage: m.cfg.Stage,
		BallDetails:     append([]domain.Delivery(nil), s.Deliveries...),
	}
	second := &domain.Score{Runs: s.Runs, Wickets: s.Wickets, Overs: s.Overs}
	if m.cfg.BattingFirst == domain.TeamA {
		rec.TeamA.Score = s.FirstInnings
		if s.Innings == 2 {
			rec.TeamB.Score = second
		}
	} else {
		rec.TeamB.Score = s.FirstInnings
		if s.Innings == 2 {
			rec.TeamA.Score = second
		}
	}
	return rec
}

func playerName(players []string, idx int) string {
	if idx < 0 || idx >= len(players) {
		return "Unknown"
	}
	return players[idx]
}

func lastIndex(players []string) int {
	if len(players) == 0 {
		return 0
	}
	return len(players) - 1
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
