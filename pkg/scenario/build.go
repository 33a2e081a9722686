// Package scenario turns declarative YAML documents into chains.
//
//	group: sequential
//	chains:
//	  - id: intro
//	    steps:
//	      - wait: 1s
//	      - nowait: "title shown"
//	      - play: ui whoosh
//	        volume: 0.8
//	      - call: stop
//	        args: {id: music, force: true}
//	      - embed:
//	          id: sparkles
//	          steps:
//	            - wait: 500ms
//	            - log: "sparkle"
//
// A log step prints and completes at once; nowait prints as a fire-and-forget step;
// play needs an audio manager in the Env; call runs a registered action and
// completes at once.
package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/audio"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/registry"
)

// Env provides what steps act on.
type Env struct {
	// Print receives the text of log and nowait steps.
	Print func(chainID, text string)
	// Audio plays the clips of play steps.
	Audio *audio.Manager
	// Actions runs the actions of call steps.
	Actions *registry.Registry
	// Logger receives failed calls. Nil discards them.
	Logger *slog.Logger
}

// Build validates the document and registers its chains in reg. It returns the
// top-level chains in declaration order, none of them started.
func (d *Document) Build(reg *chain.Registry, env Env) ([]*chain.Chain, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := d.checkRefs(env); err != nil {
		return nil, err
	}
	if env.Logger == nil {
		env.Logger = logging.NewNop()
	}

	chains := make([]*chain.Chain, 0, len(d.Chains))
	for _, spec := range d.Chains {
		chains = append(chains, build(reg, env, spec))
	}
	return chains, nil
}

// checkRefs resolves the clips and actions the steps name.
func (d *Document) checkRefs(env Env) error {
	var check func(steps []StepSpec) error
	check = func(steps []StepSpec) error {
		for _, s := range steps {
			switch s.Kind {
			case KindPlay:
				if env.Audio == nil {
					return fmt.Errorf("%w: play %q needs an audio catalog", domain.ErrInvalidScenario, s.Play)
				}
				if !env.Audio.Has(s.Play) {
					return fmt.Errorf("%w: %q", domain.ErrUnknownClip, s.Play)
				}
			case KindCall:
				if env.Actions == nil {
					return fmt.Errorf("%w: call %q needs an action registry", domain.ErrInvalidScenario, s.Call)
				}
				if !env.Actions.Has(s.Call) {
					return fmt.Errorf("%w: %s", domain.ErrUnknownAction, s.Call)
				}
			case KindEmbed:
				if err := check(s.Embed.Steps); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, c := range d.Chains {
		if err := check(c.Steps); err != nil {
			return err
		}
	}
	return nil
}

func build(reg *chain.Registry, env Env, spec ChainSpec) *chain.Chain {
	c := reg.New(spec.ID, nil)
	if spec.Mode != "" {
		c.WithMode(spec.Mode)
	}
	id := c.ID()

	printer := func(text string) func() {
		return func() {
			if env.Print != nil {
				env.Print(id, text)
			}
		}
	}

	for _, s := range spec.Steps {
		switch s.Kind {
		case KindWait:
			c.AddWait(s.Wait)
		case KindLog:
			c.AddFunc(printer(s.Log), nil)
		case KindNoWait:
			c.AddNoWait(printer(s.NoWait), nil)
		case KindPlay:
			volume := 1.0
			if s.Volume != nil {
				volume = *s.Volume
			}
			c.AddStep(env.Audio.PlayStep(s.Play, volume))
		case KindCall:
			c.AddFunc(caller(env, id, s.Call, s.Args), nil)
		case KindEmbed:
			c.AddEmbedded(build(reg, env, *s.Embed))
		}
	}
	return c
}

func caller(env Env, chainID, name string, args map[string]any) func() {
	return func() {
		call := registry.Call{ChainID: chainID, Args: args}
		if err := env.Actions.Execute(context.Background(), name, call); err != nil {
			env.Logger.Warn("call step failed", domain.KeyChainID, chainID, "action", name, "error", err)
		}
	}
}

// Start builds the document and starts its chains as its group mode says.
// onAll is not called for GroupNone.
func (d *Document) Start(reg *chain.Registry, env Env, onAll func()) ([]*chain.Chain, error) {
	chains, err := d.Build(reg, env)
	if err != nil {
		return nil, err
	}

	switch d.Group {
	case GroupSequential:
		err = chain.StartAllSequential(onAll, chains...)
	case GroupNone:
		for _, c := range chains {
			if err = c.Start(nil); err != nil {
				break
			}
		}
	default:
		err = chain.StartAllParallel(onAll, chains...)
	}
	return chains, err
}
