package dsl

import (
	"time"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/scenario"
)

// ChainBuilder provides a fluent API for configuring a chain.
type ChainBuilder struct {
	spec    scenario.ChainSpec
	embeds  map[int]*ChainBuilder
	builder *Builder
}

// Builder returns the document builder the chain belongs to, so the next chain can
// be added in the same expression. It is nil for embedded chains.
func (c *ChainBuilder) Builder() *Builder {
	return c.builder
}

// Parallel makes every step of the chain activate at once.
func (c *ChainBuilder) Parallel() *ChainBuilder {
	c.spec.Mode = domain.ModeParallel
	return c
}

// Sequential makes the steps run one after another. It is the default.
func (c *ChainBuilder) Sequential() *ChainBuilder {
	c.spec.Mode = domain.ModeSequential
	return c
}

// Wait appends a timed pause.
func (c *ChainBuilder) Wait(d time.Duration) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindWait, Wait: d})
}

// Log appends a step that prints text and completes at once.
func (c *ChainBuilder) Log(text string) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindLog, Log: text})
}

// NoWait appends a fire-and-forget step that prints text.
func (c *ChainBuilder) NoWait(text string) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindNoWait, NoWait: text})
}

// Play appends a clip at full volume.
func (c *ChainBuilder) Play(clip string) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindPlay, Play: clip})
}

// PlayAt appends a clip at the given volume, from 0 to 1.
func (c *ChainBuilder) PlayAt(clip string, volume float64) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindPlay, Play: clip, Volume: &volume})
}

// Call appends a step running the registered action name.
func (c *ChainBuilder) Call(name string, args map[string]any) *ChainBuilder {
	return c.step(scenario.StepSpec{Kind: scenario.KindCall, Call: name, Args: args})
}

// Embed appends a child chain configured by fn. Embedded chains run in parallel.
func (c *ChainBuilder) Embed(id string, fn func(*ChainBuilder)) *ChainBuilder {
	sub := &ChainBuilder{spec: scenario.ChainSpec{ID: id}}
	if fn != nil {
		fn(sub)
	}
	if c.embeds == nil {
		c.embeds = make(map[int]*ChainBuilder)
	}
	c.embeds[len(c.spec.Steps)] = sub
	return c.step(scenario.StepSpec{Kind: scenario.KindEmbed})
}

func (c *ChainBuilder) step(s scenario.StepSpec) *ChainBuilder {
	c.spec.Steps = append(c.spec.Steps, s)
	return c
}

// build copies the spec with its embedded chains.
func (c *ChainBuilder) build() scenario.ChainSpec {
	spec := c.spec
	spec.Steps = make([]scenario.StepSpec, len(c.spec.Steps))
	copy(spec.Steps, c.spec.Steps)
	for i, sub := range c.embeds {
		embedded := sub.build()
		spec.Steps[i].Embed = &embedded
	}
	return spec
}
