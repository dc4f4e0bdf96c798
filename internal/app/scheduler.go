package app

import "time"

// Scheduler arms the per-question countdown. The returned cancel is safe to
// call more than once; a fired task must be a no-op if its ball was already
// resolved (the service guards with a sequence check).
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

// NewTimerScheduler returns the wall-clock scheduler used in production.
func NewTimerScheduler() Scheduler { return timerScheduler{} }

func (timerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
