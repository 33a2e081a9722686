/*
Package domain contains the core vocabulary shared by the chains engine and its adapters.

It defines chain and step modes, the observable chain lifecycle, the sentinel errors,
and the lifecycle events emitted while chains run. This package is kept pure and free
of external dependencies like I/O or persistence.

# Key Entities

  - ChainMode / StepMode: Sequential vs Parallel chains, Blocking vs FireAndForget steps.
  - ChainState: NotStarted, Running, Finished and Stopped.
  - ConfigError: the fatal error raised when a chain is driven to a missing step.
  - ChainEvent / LifecycleHooks: observability callbacks fired by the registry.
*/
package domain
