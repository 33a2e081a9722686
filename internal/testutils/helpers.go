package testutils

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/chains/pkg/chain"
)

// ManualScheduler is a chain.Scheduler whose timers only fire when the test advances it.
// It lets tests express "finishes after one tick" without sleeping.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*ManualTimer
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// NewTimer implements chain.Scheduler.
func (s *ManualScheduler) NewTimer(d time.Duration, fn func()) chain.Cancelable {
	t := &ManualTimer{s: s, d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	return s.now
}

// Pending returns the number of armed timers.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if t.armed {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, firing due timers in deadline order.
// It returns the number of timers fired.
func (s *ManualScheduler) Advance(d time.Duration) int {
	target := s.now + d
	fired := 0
	for {
		t := s.next()
		if t == nil || t.deadline > target {
			break
		}
		s.now = t.deadline
		t.armed = false
		t.fn()
		fired++
	}
	s.now = target
	return fired
}

// Tick jumps to the earliest armed deadline and fires every timer due at that instant.
func (s *ManualScheduler) Tick() int {
	t := s.next()
	if t == nil {
		return 0
	}
	return s.Advance(t.deadline - s.now)
}

func (s *ManualScheduler) next() *ManualTimer {
	var armed []*ManualTimer
	for _, t := range s.timers {
		if t.armed {
			armed = append(armed, t)
		}
	}
	if len(armed) == 0 {
		return nil
	}
	return slices.MinFunc(armed, func(a, b *ManualTimer) int {
		if c := cmp.Compare(a.deadline, b.deadline); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

// ManualTimer is a timer created by ManualScheduler.
type ManualTimer struct {
	s        *ManualScheduler
	d        time.Duration
	fn       func()
	deadline time.Duration
	seq      int
	armed    bool
}

// Start arms the timer relative to the current virtual time.
func (t *ManualTimer) Start() {
	t.s.seq++
	t.seq = t.s.seq
	t.deadline = t.s.now + t.d
	t.armed = true
}

// Stop disarms the timer.
func (t *ManualTimer) Stop() {
	t.armed = false
}

// Handle is a fake cancelable operation, standing in for an animation.
type Handle struct {
	Starts   int
	Stops    int
	OnFinish func()
}

func (h *Handle) Start() { h.Starts++ }
func (h *Handle) Stop()  { h.Stops++ }

// Finish simulates the operation reaching its end, unless it was stopped.
func (h *Handle) Finish() {
	if h.Stops == 0 && h.OnFinish != nil {
		h.OnFinish()
	}
}

// Recorder collects labels in call order. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Add returns a func that records label when called.
func (r *Recorder) Add(label string) func() {
	return func() { r.Record(label) }
}

// Record appends label.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, label)
}

// Events returns a copy of the recorded labels.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Count returns how many times label was recorded.
func (r *Recorder) Count(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == label {
			n++
		}
	}
	return n
}
