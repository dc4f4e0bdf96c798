package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-cricket-service/internal/domain"
	"quiz-cricket-service/internal/engine"
	"quiz-cricket-service/internal/questions"
)

// SessionRepository abstracts how live match sessions are tracked
// (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Create(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuestionRepository loads the master question bank (from cache/backing store).
type QuestionRepository interface {
	Bank(ctx context.Context) ([]domain.Question, error)
}

// GameRepository persists completed match records.
type GameRepository interface {
	Save(ctx context.Context, rec domain.MatchRecord) (domain.MatchRecord, error)
	History(ctx context.Context, limit int) ([]domain.MatchRecord, error)
	ByID(ctx context.Context, id string) (domain.MatchRecord, error)
}

// ResumeState is the in-progress match snapshot kept so an interrupted match
// can be picked up again. Keyed by team names plus the batting-first choice.
type ResumeState struct {
	TeamAName    string                 `json:"teamAName"`
	TeamBName    string                 `json:"teamBName"`
	PlayersA     []string               `json:"playersA"`
	PlayersB     []string               `json:"playersB"`
	BattingFirst domain.TeamSide        `json:"battingFirst"`
	Stage        domain.TournamentStage `json:"tournamentStage"`
	State        engine.State           `json:"state"`
	SavedAt      time.Time              `json:"savedAt"`
}

// ResumeStore persists in-progress match snapshots.
type ResumeStore interface {
	SaveState(ctx context.Context, key string, state ResumeState) error
	LoadState(ctx context.Context, key string) (ResumeState, bool, error)
	ClearState(ctx context.Context, key string) error
}

// NewMatchParams describes a match to start. Empty BattingFirst means a coin
// toss; empty Stage defaults to the group stage.
type NewMatchParams struct {
	TeamAName    string
	TeamBName    string
	PlayersA     []string
	PlayersB     []string
	BattingFirst domain.TeamSide
	Stage        domain.TournamentStage
}

// MatchService contains the live-match use cases: starting (or resuming) a
// match, per-ball selection and answering, and persisting the finished game.
type MatchService struct {
	sessions  SessionRepository
	questions QuestionRepository
	games     *GameStore
	resume    ResumeStore
	sched     Scheduler
	rules     engine.Rules
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewMatchService wires the service with production defaults. games and
// resume may be nil when persistence is not configured.
func NewMatchService(sessions SessionRepository, bank QuestionRepository, games *GameStore, resume ResumeStore) *MatchService {
	return &MatchService{
		sessions:  sessions,
		questions: bank,
		games:     games,
		resume:    resume,
		sched:     NewTimerScheduler(),
		rules:     engine.DefaultRules(),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetScheduler is a test hook for a deterministic countdown scheduler.
func (s *MatchService) SetScheduler(sched Scheduler) { s.sched = sched }

// SetClock is a test hook for deterministic timestamps.
func (s *MatchService) SetClock(now func() time.Time) { s.now = now }

// SetRules overrides the default match policy (from configuration).
func (s *MatchService) SetRules(rules engine.Rules) { s.rules = rules }

// SetSeed is a test hook for deterministic pool generation.
func (s *MatchService) SetSeed(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }

// Rules returns the policy the service creates matches with.
func (s *MatchService) Rules() engine.Rules { return s.rules }

func resumeKey(p NewMatchParams) string {
	return fmt.Sprintf("%s|%s|%s", p.TeamAName, p.TeamBName, p.BattingFirst)
}

// CreateMatch starts a new match session. Question pools are generated fresh
// for every session; if an unfinished match with the same teams and
// batting-first choice was interrupted, its state is restored instead of
// starting from zero (resumed reports which).
func (s *MatchService) CreateMatch(ctx context.Context, p NewMatchParams) (Snapshot, bool, error) {
	if p.TeamAName == "" || p.TeamBName == "" || len(p.PlayersA) == 0 || len(p.PlayersB) == 0 {
		return Snapshot{}, false, fmt.Errorf("both teams need a name and players")
	}
	if p.Stage == "" {
		p.Stage = domain.StageGroup
	}
	if !domain.ValidStage(p.Stage) {
		return Snapshot{}, false, fmt.Errorf("unknown tournament stage %q", p.Stage)
	}
	if p.BattingFirst == "" {
		p.BattingFirst = s.coinToss()
	}

	bank, err := s.questions.Bank(ctx)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load question bank: %w", err)
	}
	poolCfg := questions.DefaultPoolConfig()
	poolCfg.Size = s.rules.PoolSize
	s.rngMu.Lock()
	pools, degraded, err := questions.Generate(bank, p.Stage, poolCfg, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return Snapshot{}, false, err
	}
	if degraded {
		log.Printf("not enough %s questions for two pools, using the full bank", p.Stage)
	}

	cfg := engine.Config{
		TeamAName:    p.TeamAName,
		TeamBName:    p.TeamBName,
		PlayersA:     p.PlayersA,
		PlayersB:     p.PlayersB,
		BattingFirst: p.BattingFirst,
		Stage:        p.Stage,
		Rules:        s.rules,
		Now:          s.now,
	}

	var match *engine.Match
	resumed := false
	if s.resume != nil {
		if saved, ok, err := s.resume.LoadState(ctx, resumeKey(p)); err != nil {
			log.Printf("load in-progress match: %v", err)
		} else if ok && !saved.State.GameOver {
			match = engine.Restore(cfg, saved.State)
			resumed = true
		}
	}
	if match == nil {
		match = engine.New(cfg)
	}

	sess := NewSession(uuid.NewString(), match, pools, degraded)
	s.sessions.Create(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !resumed {
		s.persistResumeLocked(ctx, sess)
	}
	return sess.snapshotLocked(), resumed, nil
}

// Subscribe returns a channel of live updates for a match. The caller must
// invoke the cancel function to avoid leaks.
func (s *MatchService) Subscribe(_ context.Context, matchID string) (<-chan Update, func(), error) {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return nil, nil, domain.ErrMatchNotFound
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// Snapshot returns the current state of a live match.
func (s *MatchService) Snapshot(matchID string) (Snapshot, error) {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return Snapshot{}, domain.ErrMatchNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// SelectBatter picks the striker for the next ball. Locked (out) batters
// are rejected.
func (s *MatchService) SelectBatter(matchID string, idx int) error {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.match.GameOver() {
		return domain.ErrMatchOver
	}
	if err := sess.match.CheckBatter(idx); err != nil {
		return err
	}
	sess.selBatter = idx
	sess.broadcastLocked(nil)
	return nil
}

// SelectBowler picks the bowler for the next ball.
func (s *MatchService) SelectBowler(matchID string, idx int) error {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.match.GameOver() {
		return domain.ErrMatchOver
	}
	if err := sess.match.CheckBowler(idx); err != nil {
		return err
	}
	sess.selBowler = idx
	sess.broadcastLocked(nil)
	return nil
}

// SelectBall consumes a ball from the current innings pool. Extras resolve
// immediately; normal questions enter the batter's turn with a countdown
// armed. Rejections (players not selected, question pending, ball used,
// match over) leave the state untouched.
func (s *MatchService) SelectBall(ctx context.Context, matchID string, ballID int) error {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.match.GameOver() {
		return domain.ErrMatchOver
	}
	if sess.selBatter < 0 || sess.selBowler < 0 {
		return domain.ErrPlayersNotSelected
	}
	if _, pending := sess.resolver.Pending(); pending {
		return domain.ErrQuestionPending
	}

	var question *domain.Question
	for _, q := range sess.pools.ForInnings(sess.match.State().Innings) {
		if q.ID == ballID {
			q := q
			question = &q
			break
		}
	}
	if question == nil {
		return domain.ErrUnknownBall
	}
	if err := sess.match.BeginDelivery(sess.selBatter, sess.selBowler, ballID); err != nil {
		return err
	}

	out, countdown, err := sess.resolver.SelectBall(*question)
	if err != nil {
		return err
	}
	if out != nil {
		// Wide or no-ball: no question UI, straight to the outcome.
		s.applyOutcomeLocked(ctx, sess, *out)
		return nil
	}
	s.armTimerLocked(sess, countdown)
	sess.broadcastLocked(nil)
	return nil
}

// Answer feeds the active side's choice into the resolver. A negative
// choice is not accepted from callers; timeouts come from the scheduler.
func (s *MatchService) Answer(ctx context.Context, matchID string, choice int) error {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return domain.ErrMatchNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if choice < 0 {
		return domain.ErrNoQuestionPending
	}
	return s.answerLocked(ctx, sess, choice)
}

// Close tears down a live session, cancelling any in-flight countdown.
func (s *MatchService) Close(matchID string) {
	sess, ok := s.sessions.Get(matchID)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.stopTimerLocked()
	sess.resolver.Reset()
	sess.mu.Unlock()
	s.sessions.Delete(matchID)
}

func (s *MatchService) answerLocked(ctx context.Context, sess *Session, choice int) error {
	out, countdown, err := sess.resolver.ApplyAnswer(choice)
	if err != nil {
		return err
	}
	if out == nil {
		// Batter missed; same question moves to the bowler with a fresh
		// countdown of the same duration.
		s.armTimerLocked(sess, countdown)
		sess.broadcastLocked(nil)
		return nil
	}
	sess.stopTimerLocked()
	s.applyOutcomeLocked(ctx, sess, *out)
	return nil
}

func (s *MatchService) applyOutcomeLocked(ctx context.Context, sess *Session, out engine.Outcome) {
	res := sess.match.ApplyDelivery(out)
	sess.selBatter = -1
	sess.selBowler = -1

	ev := &OutcomeEvent{
		Result:       res.Delivery.Result,
		Runs:         res.Delivery.RunsScored,
		Boundary:     res.Boundary,
		ExtraType:    res.Delivery.ExtraType,
		InningsEnded: res.InningsEnded,
		Target:       res.Target,
		GameOver:     res.GameOver,
		Winner:       res.Winner,
	}
	if res.InningsEnded {
		sess.resolver.Reset()
	}
	if res.GameOver {
		ev.Saved, ev.SavedLocally = s.saveRecordLocked(ctx, sess)
		s.clearResumeLocked(ctx, sess)
	} else {
		s.persistResumeLocked(ctx, sess)
	}
	sess.broadcastLocked(ev)
}

// saveRecordLocked persists the finished match, falling back to the local
// store when the primary repository is down. Failures never interrupt the
// session; the player only learns whether the game was saved.
func (s *MatchService) saveRecordLocked(ctx context.Context, sess *Session) (saved, local bool) {
	if s.games == nil {
		return false, false
	}
	rec := sess.match.Record()
	_, local, err := s.games.Save(ctx, rec)
	if err != nil {
		log.Printf("save game %s: %v", sess.id, err)
		return false, false
	}
	return true, local
}

func (s *MatchService) persistResumeLocked(ctx context.Context, sess *Session) {
	if s.resume == nil {
		return
	}
	teamA, teamB := sess.match.TeamNames()
	state := ResumeState{
		TeamAName:    teamA,
		TeamBName:    teamB,
		PlayersA:     sess.match.Players(domain.TeamA),
		PlayersB:     sess.match.Players(domain.TeamB),
		BattingFirst: sess.match.BattingFirst(),
		Stage:        sess.match.Stage(),
		State:        sess.match.State(),
		SavedAt:      s.now(),
	}
	key := fmt.Sprintf("%s|%s|%s", teamA, teamB, sess.match.BattingFirst())
	if err := s.resume.SaveState(ctx, key, state); err != nil {
		log.Printf("persist in-progress match: %v", err)
	}
}

func (s *MatchService) clearResumeLocked(ctx context.Context, sess *Session) {
	if s.resume == nil {
		return
	}
	teamA, teamB := sess.match.TeamNames()
	key := fmt.Sprintf("%s|%s|%s", teamA, teamB, sess.match.BattingFirst())
	if err := s.resume.ClearState(ctx, key); err != nil {
		log.Printf("clear in-progress match: %v", err)
	}
}

func (s *MatchService) armTimerLocked(sess *Session, d time.Duration) {
	sess.stopTimerLocked()
	seq := sess.timerSeq
	sess.deadline = s.now().Add(d)
	sess.cancelTimer = s.sched.Schedule(d, func() {
		s.expire(sess, seq)
	})
}

// expire synthesizes a wrong answer when the countdown runs out. It goes
// through the same path as a real answer; a stale sequence means the ball
// was already resolved and the expiry is ignored.
func (s *MatchService) expire(sess *Session, seq int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.timerSeq != seq {
		return
	}
	if err := s.answerLocked(context.Background(), sess, -1); err != nil {
		log.Printf("countdown expiry for match %s: %v", sess.id, err)
	}
}

func (s *MatchService) coinToss() domain.TeamSide {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng.Intn(2) == 0 {
		return domain.TeamA
	}
	return domain.TeamB
}
