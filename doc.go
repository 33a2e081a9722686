/*
Package chains is an orchestrator for short, ordered lists of actions ("chains") that
drive UI flows, cutscenes and scripted sequences.

A chain holds steps. A Sequential chain runs them one after another, waiting for each
blocking step to signal completion; a Parallel chain fires every step at once and
finishes when all of them have signaled. Chains are registered by id: building a chain
with an id that is already running force-stops the previous holder first.

# Concurrency

Chains are single-threaded. The Engine pairs a registry with a loop that serializes
every access, so timers, HTTP handlers and other goroutines talk to chains through
Post, Do, or the ports.ChainController methods.

# Usage

	package main

	import (
		"context"
		"fmt"
		"time"

		"github.com/aretw0/chains"
		"github.com/aretw0/chains/pkg/chain"
	)

	func main() {
		eng := chains.New()

		eng.Post(func(reg *chain.Registry) {
			err := reg.New("intro", eng.Close).
				AddNoWait(func() { fmt.Println("fade in") }, nil).
				AddWait(500 * time.Millisecond).
				AddFunc(func() { fmt.Println("title") }, nil).
				Start(nil)
			if err != nil {
				panic(err)
			}
		})

		if err := eng.Run(context.Background()); err != nil {
			panic(err)
		}
	}

Chains can also be declared in YAML and built with package scenario.
*/
package chains
