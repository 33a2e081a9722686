package loop

import (
	"time"

	"github.com/aretw0/chains/pkg/chain"
)

// Timer runs a function on the loop after a delay.
// Start and Stop must be called from the loop goroutine.
type Timer struct {
	l  *Loop
	d  time.Duration
	fn func()

	t   *time.Timer
	gen int
}

var _ chain.Cancelable = (*Timer)(nil)

// NewTimer implements chain.Scheduler. The returned timer is idle until Start.
func (l *Loop) NewTimer(d time.Duration, fn func()) chain.Cancelable {
	return &Timer{l: l, d: d, fn: fn}
}

// AfterFunc creates and starts a timer.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{l: l, d: d, fn: fn}
	t.Start()
	return t
}

// Start arms the timer, re-arming it if it was already running.
func (t *Timer) Start() {
	t.stopClock()
	t.gen++
	gen := t.gen
	t.t = time.AfterFunc(t.d, func() {
		t.l.Post(func() {
			if t.gen != gen {
				return
			}
			t.gen++
			t.fn()
		})
	})
}

// Stop disarms the timer. A fire that was already queued on the loop is discarded.
func (t *Timer) Stop() {
	t.gen++
	t.stopClock()
}

func (t *Timer) stopClock() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
