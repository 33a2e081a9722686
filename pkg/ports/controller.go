package ports

import (
	"context"

	"github.com/aretw0/chains/pkg/domain"
)

// ChainController is the control surface adapters (HTTP, MCP) use to inspect and stop
// live chains. Implementations must be safe for concurrent use: calls arrive from
// request goroutines, not from the goroutine driving the chains.
type ChainController interface {
	// List returns a snapshot of every live chain, ordered by id.
	List(ctx context.Context) ([]domain.ChainInfo, error)

	// Info returns the snapshot of one live chain.
	// A miss returns a *domain.NotFoundError.
	Info(ctx context.Context, id string) (domain.ChainInfo, error)

	// Stop stops one live chain. A miss returns a *domain.NotFoundError.
	Stop(ctx context.Context, id string, forceComplete bool) error

	// StopAll stops every live chain without forcing completion and returns how many
	// were stopped.
	StopAll(ctx context.Context) (int, error)

	// IsFinished reports whether id no longer names a running chain. A miss is finished.
	IsFinished(ctx context.Context, id string) (bool, error)
}
