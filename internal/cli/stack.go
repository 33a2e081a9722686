package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/internal/config"
	httpAdapter "github.com/aretw0/chains/pkg/adapters/http"
	"github.com/aretw0/chains/pkg/adapters/process"
	"github.com/aretw0/chains/pkg/adapters/redis"
	"github.com/aretw0/chains/pkg/audio"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/observability"
	"github.com/aretw0/chains/pkg/registry"
	"github.com/aretw0/chains/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Stack is an Engine wired with every component the configuration enables.
type Stack struct {
	Engine    *chains.Engine
	Streams   *httpAdapter.StreamManager
	Gatherer  prometheus.Gatherer
	Publisher *redis.Publisher
	Audio     *audio.Manager
	Actions   *registry.Registry
	Processes *process.Runner
	Logger    *slog.Logger

	idle func()
}

// NewStack builds the stack. Extra hooks receive every lifecycle event after the
// built-in consumers.
func NewStack(cfg config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*Stack, error) {
	s := &Stack{
		Streams: httpAdapter.NewStreamManager(0, logger),
		Logger:  logger,
	}

	opts := []chains.Option{
		chains.WithLogger(logger),
		chains.WithLifecycleHooks(s.Streams.Hooks()),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		s.Gatherer = reg
		opts = append(opts, chains.WithLifecycleHooks(m.Hooks()))
	}

	if cfg.Redis.Addr != "" {
		s.Publisher = redis.New(cfg.Redis.Addr, "", 0,
			redis.WithChannel(cfg.Redis.Channel),
			redis.WithLogger(logger),
		)
		opts = append(opts, chains.WithLifecycleHooks(s.Publisher.Hooks()))
	}

	opts = append(opts, chains.WithLifecycleHooks(s.idleHooks()))
	for _, h := range hooks {
		opts = append(opts, chains.WithLifecycleHooks(h))
	}
	s.Engine = chains.New(opts...)

	s.Actions = registry.NewRegistry()
	registry.RegisterChainActions(s.Actions, s.Engine.Registry())

	if cfg.Actions.File != "" {
		actions, err := process.LoadActions(cfg.Actions.File)
		if err != nil {
			return nil, err
		}
		s.Processes = process.NewRunner(
			process.WithBaseDir(filepath.Dir(cfg.Actions.File)),
			process.WithLogger(logger),
		)
		s.Processes.Register(s.Actions, actions...)
	}

	if cfg.Audio.Catalog != "" {
		cat, err := audio.LoadCatalog(cfg.Audio.Catalog)
		if err != nil {
			return nil, err
		}
		engine := audio.NewConsoleEngine(s.Engine.Loop(), 0, logger)
		s.Audio = audio.NewManager(engine,
			audio.WithLogger(logger),
			audio.WithScheduler(s.Engine.Loop()),
		)
		if err := s.Audio.Load(cat); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Background starts the stack's helper goroutines. They stop when ctx is done.
func (s *Stack) Background(ctx context.Context) {
	if s.Publisher != nil {
		go func() {
			if err := s.Publisher.Run(ctx); err != nil {
				s.Logger.Error("event publisher stopped", "error", err)
			}
		}()
	}
}

// Close kills running processes and releases external connections.
func (s *Stack) Close() {
	if s.Processes != nil {
		s.Processes.Close()
	}
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			s.Logger.Warn("failed to close redis client", "error", err)
		}
	}
}

// Env returns the scenario environment of the stack. say receives log and nowait
// text.
func (s *Stack) Env(say func(chainID, text string)) scenario.Env {
	return scenario.Env{
		Print:   say,
		Audio:   s.Audio,
		Actions: s.Actions,
		Logger:  s.Logger,
	}
}

// HTTPHandler returns the control API handler for the stack.
func (s *Stack) HTTPHandler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(s.Logger),
		httpAdapter.WithStreams(s.Streams),
	}
	if s.Gatherer != nil {
		opts = append(opts, httpAdapter.WithMetrics(s.Gatherer))
	}
	return httpAdapter.NewHandler(s.Engine, opts...)
}

// OnIdle registers fn to run on the loop whenever a chain finishes or stops and no
// chain remains in the registry.
func (s *Stack) OnIdle(fn func()) {
	s.idle = fn
}

func (s *Stack) idleHooks() domain.LifecycleHooks {
	check := func(_ context.Context, _ *domain.ChainEvent) {
		if s.idle == nil {
			return
		}
		// The ending chain leaves the registry after its hooks run.
		s.Engine.Post(func(reg *chain.Registry) {
			if reg.Len() == 0 && s.idle != nil {
				s.idle()
			}
		})
	}
	return domain.LifecycleHooks{
		OnChainFinish: check,
		OnChainStop:   check,
	}
}
