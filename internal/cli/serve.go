package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/chains/internal/config"
	"github.com/aretw0/chains/pkg/adapters/mcp"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/scenario"
)

// ServeOptions configures Serve and ServeMCP.
type ServeOptions struct {
	Config   config.Config
	Scenario string // Optional scenario started at boot
	Out      io.Writer
}

// Serve runs the engine with the HTTP control API until interrupted.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger, err := NewLogger(opts.Config.Log)
	if err != nil {
		return err
	}
	stack, err := NewStack(opts.Config, logger)
	if err != nil {
		return err
	}
	defer stack.Close()
	if err := boot(stack, opts.Scenario); err != nil {
		return err
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()
	stack.Background(sigCtx)

	srv := &http.Server{Addr: opts.Config.HTTP.Addr, Handler: stack.HTTPHandler()}
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Starting chains server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	engineErrors := make(chan error, 1)
	go func() { engineErrors <- stack.Engine.Run(sigCtx) }()

	select {
	case err := <-serverErrors:
		stack.Engine.Close()
		<-engineErrors
		return fmt.Errorf("server error: %w", err)
	case err := <-engineErrors:
		shutdown(srv, logger)
		if err == nil && sigCtx.Signal() != nil {
			printSystemMessage(opts.Out, "Shutdown signal received (%v), server stopped gracefully.", sigCtx.Signal())
		}
		return err
	}
}

// ServeMCP runs the engine as an MCP server over stdio or SSE until interrupted.
func ServeMCP(ctx context.Context, opts ServeOptions, transport string) error {
	logger, err := NewLogger(opts.Config.Log)
	if err != nil {
		return err
	}
	stack, err := NewStack(opts.Config, logger)
	if err != nil {
		return err
	}
	defer stack.Close()
	if err := boot(stack, opts.Scenario); err != nil {
		return err
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()
	stack.Background(sigCtx)

	engineErrors := make(chan error, 1)
	go func() { engineErrors <- stack.Engine.Run(sigCtx) }()
	defer func() {
		stack.Engine.Close()
		<-engineErrors
	}()

	srv := mcp.NewServer(stack.Engine, mcp.WithLogger(logger))
	switch transport {
	case "stdio":
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		addr := opts.Config.HTTP.Addr
		err := srv.ServeSSE(sigCtx, addr, "http://localhost"+addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
	}
}

// boot queues the scenario at path, if any, to start once the engine runs.
func boot(stack *Stack, path string) error {
	if path == "" {
		return nil
	}
	doc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	env := stack.Env(func(chainID, text string) {
		stack.Logger.Info(text, domain.KeyChainID, chainID)
	})
	stack.Engine.Post(func(reg *chain.Registry) {
		if _, err := doc.Start(reg, env, nil); err != nil {
			stack.Logger.Error("failed to start scenario", "path", path, "error", err)
		}
	})
	return nil
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown did not complete", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("failed to close server", "error", err)
		}
	}
}
