package engine

import "time"

// TimerTiers maps a question's run value to its countdown duration. Higher
// value questions get more time to answer.
type TimerTiers struct {
	Single time.Duration // runs 0 or 1
	Two    time.Duration
	Four   time.Duration
	Six    time.Duration // runs 6 and above
}

// ForRuns returns the countdown for a question worth the given runs.
func (t TimerTiers) ForRuns(runs int) time.Duration {
	switch {
	case runs >= 6:
		return t.Six
	case runs >= 4:
		return t.Four
	case runs == 2:
		return t.Two
	default:
		return t.Single
	}
}

// Rules are the tunable match policy constants. They are configuration, not
// engine logic; use DefaultRules unless the config overrides them.
type Rules struct {
	BallsPerInnings int
	BallsPerOver    int
	PoolSize        int
	ExtraRun        int
	Timer           TimerTiers
}

// DefaultRules returns the standard policy: 10 legal balls per innings, 15
// question pools, 1 bonus run per extra, 20/30/45/60 second countdowns.
func DefaultRules() Rules {
	return Rules{
		BallsPerInnings: 10,
		BallsPerOver:    6,
		PoolSize:        15,
		ExtraRun:        1,
		Timer: TimerTiers{
			Single: 20 * time.Second,
			Two:    30 * time.Second,
			Four:   45 * time.Second,
			Six:    60 * time.Second,
		},
	}
}
