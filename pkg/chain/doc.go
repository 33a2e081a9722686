/*
Package chain sequences and parallelizes asynchronous steps with explicit cancellation
and forced completion.

A Chain is an ordered list of steps. Each step has an action that receives the completion
signal for its own activation. Blocking steps hold the chain until they signal;
FireAndForget steps let it advance as soon as the action returns. Started with Start the
chain walks its steps one at a time; started with StartParallel every step fires during a
single activation pass and the chain finishes once every blocking step has signaled.

Chains are created through a Registry, which enforces at most one live chain per id: a new
chain with an id already in use stops the previous holder with forced completion before it
takes the slot.

	reg := chain.NewRegistry(chain.WithScheduler(l))

	reg.New("popup", nil).
		AddFunc(show, nil).
		AddWait(2 * time.Second).
		AddNoWait(hide, nil).
		Start(func() { fmt.Println("popup done") })

The package performs no locking. All calls, including the completion signals delivered by
timers and other asynchronous primitives, must happen on one logical thread; pkg/loop
provides such a thread.
*/
package chain
