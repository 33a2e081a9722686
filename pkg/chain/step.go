package chain

import (
	"time"

	"github.com/aretw0/chains/pkg/domain"
)

// Action is the unit of work of a step. It receives the completion signal of its own
// activation: blocking actions must eventually call done, fire-and-forget actions may
// ignore it. Calling done more than once, or after the chain finished, has no effect.
type Action func(done func())

// Cancelable is an external operation, such as a running animation or timer, that the
// chain stops when it is stopped.
type Cancelable interface {
	Start()
	Stop()
}

// Scheduler creates the timers used by wait steps.
// Timers must deliver fn on the same logical thread that drives the chain.
type Scheduler interface {
	NewTimer(d time.Duration, fn func()) Cancelable
}

// Step is one unit of work of a chain.
type Step struct {
	// Action runs when the step becomes active. Required.
	Action Action

	// Cancel is stopped when the owning chain is stopped.
	Cancel Cancelable

	// ForceComplete snaps the step to its end result when the chain is stopped with
	// forced completion, whether or not the step was ever activated.
	ForceComplete func()

	// Mode defaults to domain.StepBlocking.
	Mode domain.StepMode
}

// entry is a step as tracked by its chain.
type entry struct {
	step     Step
	native   domain.StepMode // mode at build time, before any parallel conversion
	signaled bool
	// external steps complete through Chain.SignalCompletion rather than their done func.
	external bool
}

func newEntry(s Step) *entry {
	if s.Mode == "" {
		s.Mode = domain.StepBlocking
	}
	return &entry{step: s, native: s.Mode}
}

// SystemScheduler returns the scheduler used when none is configured.
func SystemScheduler() Scheduler {
	return timeScheduler{}
}

type timeScheduler struct{}

// NewTimer returns a timer backed by time.AfterFunc. fn runs on the timer's goroutine,
// so this scheduler only suits hosts that serialize the callback themselves.
func (timeScheduler) NewTimer(d time.Duration, fn func()) Cancelable {
	return &afterFuncTimer{d: d, fn: fn}
}

type afterFuncTimer struct {
	d  time.Duration
	fn func()
	t  *time.Timer
}

func (a *afterFuncTimer) Start() {
	if a.t != nil {
		a.t.Stop()
	}
	a.t = time.AfterFunc(a.d, a.fn)
}

func (a *afterFuncTimer) Stop() {
	if a.t != nil {
		a.t.Stop()
	}
}
