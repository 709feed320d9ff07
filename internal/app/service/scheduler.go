package service

// Scheduler runs work after the request that spawned it has already been
// answered. Implementations must not propagate the task's failure to the
// caller, and must let a dispatched task run to completion.
type Scheduler interface {
	Go(fn func())
}

type goroutineScheduler struct{}

// NewGoroutineScheduler returns the production scheduler: one goroutine per
// task, no cancellation once dispatched.
func NewGoroutineScheduler() Scheduler {
	return goroutineScheduler{}
}

func (goroutineScheduler) Go(fn func()) {
	go fn()
}
