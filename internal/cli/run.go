package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/internal/config"
	"github.com/aretw0/chains/internal/presentation/tui"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/scenario"
)

// RunOptions configures RunScenario.
type RunOptions struct {
	Config  config.Config
	Path    string
	Out     io.Writer
	Verbose bool // Print step activations
	Quiet   bool // Skip the banner
	Serve   bool // Serve the control API while the scenario runs
}

// RunScenario plays a scenario file until every chain has finished or stopped, or
// until the process is interrupted.
func RunScenario(ctx context.Context, opts RunOptions) error {
	doc, err := scenario.Load(opts.Path)
	if err != nil {
		return err
	}

	logger, err := NewLogger(opts.Config.Log)
	if err != nil {
		return err
	}

	printer := tui.NewPrinter(opts.Out, opts.Verbose)
	if !opts.Quiet {
		tui.PrintBanner(opts.Out, chains.Version)
	}

	stack, err := NewStack(opts.Config, logger, printer.Hooks())
	if err != nil {
		return err
	}
	defer stack.Close()

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()
	stack.Background(sigCtx)

	if opts.Serve {
		srv := &http.Server{Addr: opts.Config.HTTP.Addr, Handler: stack.HTTPHandler()}
		go func() {
			logger.Info("control API listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("control API failed", "error", err)
			}
		}()
		defer shutdown(srv, logger)
	}

	env := stack.Env(printer.Say)
	completed := false
	complete := func() {
		completed = true
		stack.Engine.Close()
	}
	stack.OnIdle(complete)

	var startErr error
	stack.Engine.Post(func(reg *chain.Registry) {
		if _, err := doc.Start(reg, env, nil); err != nil {
			startErr = err
			stack.Engine.Close()
			return
		}
		if reg.Len() == 0 {
			complete()
		}
	})

	started := time.Now()
	runErr := stack.Engine.Run(sigCtx)
	switch {
	case startErr != nil:
		return fmt.Errorf("failed to start scenario: %w", startErr)
	case runErr != nil:
		return runErr
	case completed:
		if stack.Processes != nil {
			stack.Processes.Wait()
		}
		printSystemMessage(opts.Out, "Scenario complete in %v.", time.Since(started).Round(time.Millisecond))
	case sigCtx.Signal() != nil:
		printSystemMessage(opts.Out, "Interrupted (%v), chains stopped.", sigCtx.Signal())
	default:
		printSystemMessage(opts.Out, "Cancelled, chains stopped.")
	}
	return nil
}

// ValidateScenario loads and validates a scenario file without running it.
// Play steps are checked against the configured audio catalog, if any.
func ValidateScenario(cfg config.Config, path string) (*scenario.Document, error) {
	doc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false
	cfg.Redis.Addr = ""
	stack, err := NewStack(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer stack.Close()

	// Building registers the chains without starting them.
	env := stack.Env(func(string, string) {})
	var buildErr error
	stack.Engine.Post(func(reg *chain.Registry) {
		_, buildErr = doc.Build(reg, env)
	})
	stack.Engine.Loop().RunPending()
	stack.Engine.Close()
	if buildErr != nil {
		return nil, buildErr
	}
	return doc, nil
}
