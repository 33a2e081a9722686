package chains

import (
	"context"
	"log/slog"

	"github.com/agnivade/levenshtein"
	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/loop"
	"github.com/aretw0/chains/pkg/ports"
)

// Engine is the high-level entry point for the chains library.
// It owns a loop and the registry that loop drives, so chains can be built and
// stopped from any goroutine.
type Engine struct {
	loop      *loop.Loop
	registry  *chain.Registry
	hooks     []domain.LifecycleHooks
	queueSize int
	logger    *slog.Logger
}

var _ ports.ChainController = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. It can be given several times;
// every set receives every event.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithQueueSize sets the initial capacity of the loop's task queue.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		e.queueSize = n
	}
}

// New initializes an idle Engine. Call Run to start driving chains.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    logging.NewNop(),
		queueSize: loop.DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.loop = loop.New(loop.WithLogger(e.logger), loop.WithQueueSize(e.queueSize))
	e.registry = chain.NewRegistry(
		chain.WithLogger(e.logger),
		chain.WithScheduler(e.loop),
		chain.WithLifecycleHooks(domain.MergeHooks(e.hooks...)),
	)
	return e
}

// Loop returns the executor driving the registry.
func (e *Engine) Loop() *loop.Loop {
	return e.loop
}

// Registry returns the chain registry. It must only be used from tasks running on
// the loop (see Post and Do).
func (e *Engine) Registry() *chain.Registry {
	return e.registry
}

// Run drives chains until ctx is done, Close is called, or a chain hits a
// configuration error, which is returned. Chains still live when Run returns are
// stopped without forcing completion.
func (e *Engine) Run(ctx context.Context) error {
	err := e.loop.Run(ctx)
	if n := e.registry.Len(); n > 0 {
		e.logger.Debug("stopping live chains", "count", n)
		e.registry.StopAll()
	}
	return err
}

// Close stops the loop. Run returns shortly after.
func (e *Engine) Close() {
	e.loop.Close()
}

// Post queues fn to run on the loop with the registry. It is safe from any goroutine
// and returns false once the engine is closed.
func (e *Engine) Post(fn func(reg *chain.Registry)) bool {
	return e.loop.Post(func() { fn(e.registry) })
}

// Do runs fn on the loop and waits for it.
func (e *Engine) Do(ctx context.Context, fn func(reg *chain.Registry)) error {
	return e.loop.Do(ctx, func() { fn(e.registry) })
}

// List implements ports.ChainController.
func (e *Engine) List(ctx context.Context) ([]domain.ChainInfo, error) {
	var infos []domain.ChainInfo
	err := e.Do(ctx, func(reg *chain.Registry) {
		infos = reg.Snapshot()
	})
	return infos, err
}

// Info implements ports.ChainController.
func (e *Engine) Info(ctx context.Context, id string) (domain.ChainInfo, error) {
	var (
		info  domain.ChainInfo
		found bool
		ids   []string
	)
	err := e.Do(ctx, func(reg *chain.Registry) {
		var c *chain.Chain
		if c, found = reg.Get(id); found {
			info = c.Info()
			return
		}
		ids = reg.IDs()
	})
	if err != nil {
		return domain.ChainInfo{}, err
	}
	if !found {
		return domain.ChainInfo{}, notFound(id, ids)
	}
	return info, nil
}

// Stop implements ports.ChainController.
func (e *Engine) Stop(ctx context.Context, id string, forceComplete bool) error {
	var (
		found bool
		ids   []string
	)
	err := e.Do(ctx, func(reg *chain.Registry) {
		if found = reg.Has(id); found {
			reg.Stop(id, forceComplete)
			return
		}
		ids = reg.IDs()
	})
	if err != nil {
		return err
	}
	if !found {
		return notFound(id, ids)
	}
	e.logger.Info("chain stopped", domain.KeyChainID, id, "forced", forceComplete)
	return nil
}

// StopAll implements ports.ChainController.
func (e *Engine) StopAll(ctx context.Context) (int, error) {
	var n int
	err := e.Do(ctx, func(reg *chain.Registry) {
		n = reg.Len()
		reg.StopAll()
	})
	return n, err
}

// IsFinished implements ports.ChainController.
func (e *Engine) IsFinished(ctx context.Context, id string) (bool, error) {
	finished := true
	err := e.Do(ctx, func(reg *chain.Registry) {
		finished = reg.IsFinished(id)
	})
	return finished, err
}

func notFound(id string, ids []string) error {
	return &domain.NotFoundError{ID: id, Suggestion: Suggest(id, ids)}
}

// Suggest returns the candidate closest to id by edit distance, or "" when none is
// close enough to be a likely typo.
func Suggest(id string, candidates []string) string {
	best, bestDist := "", max(2, len(id)/3)+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(id, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
