package chain

import (
	"time"

	"github.com/aretw0/chains/pkg/domain"
)

// AddStep appends a step. Actions are only checked when the step is activated.
// Builders on a finished chain are ignored.
func (c *Chain) AddStep(s Step) *Chain {
	return c.push(newEntry(s))
}

func (c *Chain) push(e *entry) *Chain {
	if c.finished {
		c.reg.logger.Warn("step added to finished chain", "chain_id", c.id)
		return c
	}
	c.steps = append(c.steps, e)
	return c
}

// AddManual appends a blocking step whose action must call done, or have SignalCompletion
// called, when it has finished.
func (c *Chain) AddManual(fn Action, forceComplete func()) *Chain {
	e := newEntry(Step{Action: fn, ForceComplete: forceComplete, Mode: domain.StepBlocking})
	e.external = true
	return c.push(e)
}

// AddFunc appends a blocking step that runs fn and signals its own completion right after.
func (c *Chain) AddFunc(fn func(), forceComplete func()) *Chain {
	var action Action
	if fn != nil {
		action = func(done func()) {
			fn()
			done()
		}
	}
	return c.AddStep(Step{Action: action, ForceComplete: forceComplete, Mode: domain.StepBlocking})
}

// AddNoWait appends a fire-and-forget step: the chain moves on as soon as fn returns.
func (c *Chain) AddNoWait(fn func(), forceComplete func()) *Chain {
	var action Action
	if fn != nil {
		action = func(func()) { fn() }
	}
	return c.AddStep(Step{Action: action, ForceComplete: forceComplete, Mode: domain.StepFireAndForget})
}

// AddNoWaitSteps appends the steps as fire-and-forget, whatever their declared mode.
func (c *Chain) AddNoWaitSteps(steps ...Step) *Chain {
	for _, s := range steps {
		s.Mode = domain.StepFireAndForget
		c.AddStep(s)
	}
	return c
}

// AddTween appends a blocking step that starts t. The caller wires t's own finish hook
// to SignalCompletion; t is stopped if the chain is stopped.
func (c *Chain) AddTween(t Cancelable, forceComplete func()) *Chain {
	var action Action
	if t != nil {
		action = func(func()) { t.Start() }
	}
	e := newEntry(Step{Action: action, Cancel: t, ForceComplete: forceComplete, Mode: domain.StepBlocking})
	e.external = true
	return c.push(e)
}

// AddAsync appends a blocking step backed by an operation that start launches.
// The operation calls done when it finishes; the returned handle, if any, is stopped
// when the chain is stopped.
func (c *Chain) AddAsync(start func(done func()) Cancelable, forceComplete func()) *Chain {
	if start == nil {
		return c.AddStep(Step{ForceComplete: forceComplete})
	}
	e := newEntry(Step{ForceComplete: forceComplete, Mode: domain.StepBlocking})
	e.step.Action = func(done func()) {
		if h := start(done); h != nil {
			e.step.Cancel = h
		}
	}
	return c.push(e)
}

// AddWait appends a blocking step that completes after d, using the registry scheduler.
func (c *Chain) AddWait(d time.Duration) *Chain {
	sched := c.reg.scheduler
	return c.AddAsync(func(done func()) Cancelable {
		t := sched.NewTimer(d, done)
		t.Start()
		return t
	}, nil)
}

// AddEmbedded appends other as a single blocking step. other is switched to parallel
// mode and its completion signals this step, so the parent only advances once every
// step of other has completed. Stopping the parent stops other with the same flag.
func (c *Chain) AddEmbedded(other *Chain) *Chain {
	if other == nil {
		return c.AddStep(Step{})
	}
	if c.finished {
		return c.push(nil)
	}

	other.mode = domain.ModeParallel
	for _, e := range other.steps {
		e.step.Mode = domain.StepFireAndForget
	}

	c.AddStep(Step{
		Mode: domain.StepBlocking,
		Action: func(done func()) {
			other.onCompleted = done
			if err := other.StartParallel(nil); err != nil {
				panic(err)
			}
		},
	})
	c.embedded = append(c.embedded, other)
	return c
}

// WithMode sets the mode Start runs the chain in. Parallel chains started with Start
// behave as if started with StartParallel, which lets group coordinators mix modes.
func (c *Chain) WithMode(mode domain.ChainMode) *Chain {
	if c.finished {
		c.reg.logger.Warn("mode set on finished chain", "chain_id", c.id)
		return c
	}
	if mode == domain.ModeParallel {
		c.mode = domain.ModeParallel
	} else {
		c.mode = domain.ModeSequential
	}
	return c
}
