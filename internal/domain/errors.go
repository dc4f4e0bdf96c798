package domain

import "errors"

var (
	// ErrPlayersNotSelected is returned when a ball is picked before both a
	// bowler and a batter have been chosen.
	ErrPlayersNotSelected = errors.New("select a bowler and a batter before choosing a ball")
	// ErrQuestionPending is returned when a ball is picked while another
	// question is still being answered.
	ErrQuestionPending = errors.New("a question is already in progress")
	// ErrNoQuestionPending is returned when an answer arrives with no active question.
	ErrNoQuestionPending = errors.New("no question is in progress")
	// ErrMatchOver rejects any delivery after the match has been decided.
	ErrMatchOver = errors.New("match is over")
	// ErrBallUsed rejects reselection of a question already consumed this innings.
	ErrBallUsed = errors.New("ball already played")
	// ErrUnknownBall indicates the selected ball number is not in the current pool.
	ErrUnknownBall = errors.New("unknown ball")
	// ErrBatterLocked rejects a striker who is already out this innings.
	ErrBatterLocked = errors.New("batter is out")
	// ErrPlayerIndex indicates a roster index out of bounds.
	ErrPlayerIndex = errors.New("player index out of range")
	// ErrChoiceDisabled rejects the bowler reusing the batter's wrong pick.
	ErrChoiceDisabled = errors.New("choice already ruled out")
	// ErrMatchNotFound is returned when a live match session does not exist.
	ErrMatchNotFound = errors.New("match not found")
	// ErrGameNotFound indicates a persisted game record does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrBankTooSmall indicates the question bank cannot fill two pools.
	ErrBankTooSmall = errors.New("question bank too small")
	// ErrBadCredentials is returned on a failed login.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a stage token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)
