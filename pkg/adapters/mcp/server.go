package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ChainsResourceURI names the resource listing every live chain.
const ChainsResourceURI = "chains://live"

// Server exposes a ChainController as an MCP Server.
type Server struct {
	ctrl      ports.ChainController
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(ctrl ports.ChainController, opts ...Option) *Server {
	s := &Server{
		ctrl:      ctrl,
		mcpServer: server.NewMCPServer("chains-mcp", strings.TrimSpace(chains.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_chains",
		mcp.WithDescription("List every live chain with its mode, state and cursor."),
	), s.handleListChains)

	s.mcpServer.AddTool(mcp.NewTool("get_chain",
		mcp.WithDescription("Inspect one live chain."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chain id")),
	), s.handleGetChain)

	s.mcpServer.AddTool(mcp.NewTool("stop_chain",
		mcp.WithDescription("Stop a live chain. With force, the force-complete action of every remaining step runs."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chain id")),
		mcp.WithBoolean("force", mcp.Description("Run force-complete actions (default false)")),
	), s.handleStopChain)

	s.mcpServer.AddTool(mcp.NewTool("stop_all",
		mcp.WithDescription("Stop every live chain without forcing completion."),
	), s.handleStopAll)

	s.mcpServer.AddTool(mcp.NewTool("is_finished",
		mcp.WithDescription("Report whether a chain id no longer names a running chain."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chain id")),
	), s.handleIsFinished)
}

func (s *Server) handleListChains(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.ctrl.List(ctx)
	if err != nil {
		return s.toolError("list_chains", err), nil
	}
	if infos == nil {
		infos = []domain.ChainInfo{}
	}
	return jsonResult(infos)
}

func (s *Server) handleGetChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.ctrl.Info(ctx, id)
	if err != nil {
		return s.toolError("get_chain", err), nil
	}
	return jsonResult(info)
}

func (s *Server) handleStopChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	force := request.GetBool("force", false)
	if err := s.ctrl.Stop(ctx, id, force); err != nil {
		return s.toolError("stop_chain", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("chain %q stopped", id)), nil
}

func (s *Server) handleStopAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.ctrl.StopAll(ctx)
	if err != nil {
		return s.toolError("stop_all", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d chains stopped", n)), nil
}

func (s *Server) handleIsFinished(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	finished, err := s.ctrl.IsFinished(ctx, id)
	if err != nil {
		return s.toolError("is_finished", err), nil
	}
	return jsonResult(map[string]bool{"finished": finished})
}

// toolError reports err to the client as a tool failure. Lookup misses are expected
// and only logged at debug level.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrChainNotFound) {
		s.logger.Debug("MCP tool: chain not found", "tool", tool, "error", err)
	} else {
		s.logger.Error("MCP tool failed", "tool", tool, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ChainsResourceURI, "Live Chains",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		infos, err := s.ctrl.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list chains: %w", err)
		}
		data, err := json.Marshal(infos)
		if err != nil {
			return nil, fmt.Errorf("failed to encode chains: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ChainsResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
