package chain

import (
	"github.com/aretw0/chains/pkg/domain"
)

// Chain is an ordered sequence of steps plus a completion callback.
// Create chains with Registry.New.
type Chain struct {
	id  string
	reg *Registry

	steps  []*entry
	mode   domain.ChainMode
	cursor int

	started  bool
	finished bool
	stopped  bool // finished through Stop rather than natural completion
	tornDown bool

	// Parallel bookkeeping: the activation pass reached the last step, and the number
	// of natively blocking steps that have not signaled yet.
	passDone bool
	pending  int

	// run is bumped on every start so that signals from an earlier run are inert.
	run int

	onCompleted func()
	embedded    []*Chain
}

// ID returns the chain identifier.
func (c *Chain) ID() string {
	return c.id
}

// Mode returns the execution mode.
func (c *Chain) Mode() domain.ChainMode {
	return c.mode
}

// Cursor returns the index of the active step.
func (c *Chain) Cursor() int {
	return c.cursor
}

// Len returns the number of steps still owned by the chain.
func (c *Chain) Len() int {
	return len(c.steps)
}

// Finished reports whether the chain completed or was stopped.
func (c *Chain) Finished() bool {
	return c.finished
}

// State returns the lifecycle state of the chain.
func (c *Chain) State() domain.ChainState {
	switch {
	case c.finished && c.stopped:
		return domain.StateStopped
	case c.finished:
		return domain.StateFinished
	case c.started:
		return domain.StateRunning
	default:
		return domain.StateNotStarted
	}
}

// Info returns a snapshot of the chain.
func (c *Chain) Info() domain.ChainInfo {
	info := domain.ChainInfo{
		ID:     c.id,
		Mode:   c.mode,
		State:  c.State(),
		Cursor: c.cursor,
		Steps:  len(c.steps),
	}
	for _, sub := range c.embedded {
		info.Embedded = append(info.Embedded, sub.id)
	}
	return info
}

// Start runs the steps one after another. onCompleted, when not nil, replaces the
// completion callback. A chain already switched to parallel mode by AddEmbedded keeps
// parallel semantics.
//
// Start returns a *domain.ConfigError when there is no step to activate.
func (c *Chain) Start(onCompleted func()) error {
	if c.mode == domain.ModeParallel {
		return c.StartParallel(onCompleted)
	}
	c.mode = domain.ModeSequential
	return c.begin(onCompleted)
}

// StartParallel converts every step to fire-and-forget and activates them back to back
// in insertion order. The chain finishes once the activation pass is over and every
// natively blocking step has signaled its own completion.
func (c *Chain) StartParallel(onCompleted func()) error {
	c.mode = domain.ModeParallel
	for _, e := range c.steps {
		e.step.Mode = domain.StepFireAndForget
	}
	return c.begin(onCompleted)
}

func (c *Chain) begin(onCompleted func()) error {
	if onCompleted != nil && !c.finished {
		c.onCompleted = onCompleted
	}
	if len(c.steps) == 0 {
		return &domain.ConfigError{ChainID: c.id, Cursor: 0, Err: domain.ErrEmptyChain}
	}

	c.run++
	c.cursor = 0
	c.started = true
	c.passDone = false
	c.pending = 0
	for _, e := range c.steps {
		e.signaled = false
		if c.mode == domain.ModeParallel && e.native == domain.StepBlocking {
			c.pending++
		}
	}

	c.reg.logger.Debug("chain started", "chain_id", c.id, "mode", c.mode, "steps", len(c.steps))
	c.reg.emit(domain.EventChainStart, c, 0, false)

	c.activate(0)
	return nil
}

// activate invokes the action of step i. A missing action is fatal.
func (c *Chain) activate(i int) {
	run := c.run
	c.cursor = i
	e := c.steps[i]
	if e.step.Action == nil {
		panic(&domain.ConfigError{ChainID: c.id, Cursor: i, Err: domain.ErrMissingAction})
	}

	c.reg.emit(domain.EventStepActivate, c, i, false)

	// Fire-and-forget steps have no signal of their own in a parallel chain.
	if c.mode == domain.ModeParallel && e.native == domain.StepFireAndForget {
		e.signaled = true
	}

	e.step.Action(c.signalFor(e, i, run))

	if c.finished || c.run != run {
		return
	}
	if e.step.Mode == domain.StepFireAndForget {
		c.advance(i)
	}
}

// signalFor builds the completion signal handed to the action of step i.
func (c *Chain) signalFor(e *entry, i, run int) func() {
	return func() {
		if c.finished || c.run != run || e.signaled {
			return
		}
		if c.mode == domain.ModeParallel {
			e.signaled = true
			if e.native == domain.StepBlocking {
				c.pending--
			}
			c.tryFinishParallel()
			return
		}
		if e.step.Mode == domain.StepFireAndForget || c.cursor != i {
			return
		}
		e.signaled = true
		c.advance(i)
	}
}

// advance moves past step i, or ends the activation pass when i is the last step.
func (c *Chain) advance(i int) {
	if c.finished || c.cursor != i {
		return
	}
	if i+1 < len(c.steps) {
		c.activate(i + 1)
		return
	}
	if c.mode == domain.ModeParallel {
		c.passDone = true
		c.tryFinishParallel()
		return
	}
	c.finish()
}

func (c *Chain) tryFinishParallel() {
	if c.finished || !c.passDone || c.pending > 0 {
		return
	}
	c.finish()
}

// SignalCompletion is the external "this step is done" entry point. In a sequential
// chain it completes the active step. In a parallel chain it completes the first tween or
// manual step that has not signaled yet, so that steps finishing through their own done
// func (waits, async steps, embedded chains) keep their signal; with no such step left it
// falls back to the first blocking step that has not signaled. It is a no-op once the
// chain finished.
func (c *Chain) SignalCompletion() {
	if c.finished || !c.started {
		return
	}
	if c.mode == domain.ModeParallel {
		i := c.nextUnsignaled(true)
		if i < 0 {
			i = c.nextUnsignaled(false)
		}
		if i >= 0 {
			c.signalFor(c.steps[i], i, c.run)()
		}
		return
	}
	if c.cursor < len(c.steps) {
		c.signalFor(c.steps[c.cursor], c.cursor, c.run)()
	}
}

func (c *Chain) nextUnsignaled(externalOnly bool) int {
	for i, e := range c.steps {
		if e.signaled || e.native != domain.StepBlocking {
			continue
		}
		if externalOnly && !e.external {
			continue
		}
		return i
	}
	return -1
}

// finish is natural completion: the callback runs exactly once, then the chain is torn
// down without forcing any step.
func (c *Chain) finish() {
	c.finished = true
	cb := c.onCompleted
	c.onCompleted = nil

	c.reg.logger.Debug("chain finished", "chain_id", c.id)
	c.reg.emit(domain.EventChainFinish, c, c.cursor, false)

	if cb != nil {
		cb()
	}
	c.teardown(false)
}

// Stop ends the chain immediately. Every remaining step's cancel handle is stopped and,
// when forceComplete is true, its ForceComplete action runs whether or not the step was
// ever activated. Embedded chains are stopped with the same flag. Once Stop returns no
// completion signal of this chain has any effect. Stop is idempotent.
func (c *Chain) Stop(forceComplete bool) {
	if c.tornDown {
		return
	}
	if !c.finished {
		c.stopped = true
	}
	c.finished = true
	c.onCompleted = nil
	c.teardown(forceComplete)
}

func (c *Chain) teardown(forceComplete bool) {
	if c.tornDown {
		return
	}
	c.tornDown = true

	steps := c.steps
	c.steps = nil
	for _, e := range steps {
		if e.step.Cancel != nil {
			e.step.Cancel.Stop()
		}
		if forceComplete && e.step.ForceComplete != nil {
			e.step.ForceComplete()
		}
	}

	embedded := c.embedded
	c.embedded = nil
	for _, sub := range embedded {
		sub.Stop(forceComplete)
	}

	if c.stopped {
		c.reg.logger.Debug("chain stopped", "chain_id", c.id, "force_complete", forceComplete)
		e := c.reg.event(domain.EventChainStop, c, c.cursor, forceComplete)
		e.Steps = len(steps)
		c.reg.publish(e)
	}

	c.reg.remove(c.id, c)
}
