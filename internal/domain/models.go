package domain

import "time"

// TeamSide identifies one of the two sides in a match.
type TeamSide string

const (
	TeamA TeamSide = "A"
	TeamB TeamSide = "B"
)

// Other returns the opposing side.
func (s TeamSide) Other() TeamSide {
	if s == TeamA {
		return TeamB
	}
	return TeamA
}

// TournamentStage gates which slice of the question bank a match draws from.
type TournamentStage string

const (
	StageGroup      TournamentStage = "group"
	StagePlayoffs   TournamentStage = "playoffs"
	StageSemifinals TournamentStage = "semifinals"
	StageFinals     TournamentStage = "finals"
)

// ValidStage reports whether s names a known tournament stage.
func ValidStage(s TournamentStage) bool {
	switch s {
	case StageGroup, StagePlayoffs, StageSemifinals, StageFinals:
		return true
	}
	return false
}

// ExtraType marks a delivery that awards a bonus run without consuming a
// legal ball.
type ExtraType string

const (
	ExtraWide   ExtraType = "wide"
	ExtraNoBall ExtraType = "noball"
)

// DeliveryResult classifies how a ball was resolved.
type DeliveryResult string

const (
	ResultRuns   DeliveryResult = "runs"
	ResultWicket DeliveryResult = "wicket"
	ResultDot    DeliveryResult = "dot"
	ResultExtra  DeliveryResult = "extra"
)

// Question models an MCQ ball with exactly one correct choice. Runs is the
// batting reward for a correct answer (0, 1, 2, 4 or 6). A non-empty Type
// flags the question as an extra delivery; extras carry Runs == 0 and bypass
// the answer flow entirely.
type Question struct {
	ID           int             `json:"id"`
	Text         string          `json:"text"`
	Choices      []string        `json:"choices"`
	CorrectIndex int             `json:"correctIndex"`
	Runs         int             `json:"runs"`
	Stage        TournamentStage `json:"stage,omitempty"`
	Type         ExtraType       `json:"type,omitempty"`
}

// IsExtra reports whether the question is flagged as a wide or no-ball.
func (q Question) IsExtra() bool {
	return q.Type == ExtraWide || q.Type == ExtraNoBall
}

// Delivery is one resolved ball, immutable once appended to the log.
type Delivery struct {
	BallNumber int            `json:"ballNumber"`
	Innings    int            `json:"innings"`
	BatterName string         `json:"batterName"`
	BowlerName string         `json:"bowlerName"`
	BatterTeam string         `json:"batterTeam"`
	BowlerTeam string         `json:"bowlerTeam"`
	Result     DeliveryResult `json:"result"`
	RunsScored int            `json:"runsScored"`
	IsExtra    bool           `json:"isExtra"`
	ExtraType  ExtraType      `json:"extraType,omitempty"`
	QuestionID int            `json:"questionId,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Score is an innings summary snapshot.
type Score struct {
	Runs    int `json:"runs"`
	Wickets int `json:"wickets"`
	Overs   int `json:"overs"`
}

// TeamRecord captures one side of a persisted match.
type TeamRecord struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Score   *Score   `json:"score,omitempty"`
}

// MatchRecord is the completed-match shape exchanged with the persistence
// API and the local fallback store.
type MatchRecord struct {
	ID              string          `json:"id,omitempty"`
	TeamA           TeamRecord      `json:"teamA"`
	TeamB           TeamRecord      `json:"teamB"`
	BattingFirst    TeamSide        `json:"battingFirst"`
	Winner          string          `json:"winner,omitempty"`
	GameOver        bool            `json:"gameOver"`
	Timestamp       time.Time       `json:"timestamp"`
	TournamentStage TournamentStage `json:"tournamentStage,omitempty"`
	BallDetails     []Delivery      `json:"ballDetails"`
}

// WinnerTie is the winner value recorded when both innings finish level.
const WinnerTie = "Tie"
