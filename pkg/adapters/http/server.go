package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the chain control API.
type Server struct {
	Controller ports.ChainController
	Streams    *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams serves GET /events from sm. Its Hooks must be registered with the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics serves GET /metrics from g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the controller.
func NewHandler(ctrl ports.ChainController, opts ...Option) http.Handler {
	server := &Server{
		Controller: ctrl,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)

	r.Route("/chains", func(r chi.Router) {
		r.Get("/", server.ListChains)
		r.Post("/stop", server.StopAll)
		r.Get("/{id}", server.GetChain)
		r.Get("/{id}/finished", server.IsFinished)
		r.Post("/{id}/stop", server.StopChain)
	})

	if server.Streams != nil {
		r.Get("/events", server.SubscribeEvents)
	}
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ListChains handles the GET /chains request.
func (s *Server) ListChains(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Controller.List(r.Context())
	if err != nil {
		s.fail(w, "ListChains", err)
		return
	}
	if infos == nil {
		infos = []domain.ChainInfo{}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

// GetChain handles the GET /chains/{id} request.
func (s *Server) GetChain(w http.ResponseWriter, r *http.Request) {
	info, err := s.Controller.Info(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetChain", err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// IsFinished handles the GET /chains/{id}/finished request.
func (s *Server) IsFinished(w http.ResponseWriter, r *http.Request) {
	finished, err := s.Controller.IsFinished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "IsFinished", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"finished": finished})
}

// StopChain handles the POST /chains/{id}/stop request. The optional force query
// parameter runs the remaining steps' force-complete actions.
func (s *Server) StopChain(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "force must be a boolean"})
			s.logger.Warn("StopChain: invalid force parameter", "value", v)
			return
		}
	}

	if err := s.Controller.Stop(r.Context(), chi.URLParam(r, "id"), force); err != nil {
		s.fail(w, "StopChain", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopAll handles the POST /chains/stop request.
func (s *Server) StopAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.Controller.StopAll(r.Context())
	if err != nil {
		s.fail(w, "StopAll", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"stopped": n})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "chains-http",
		"version": strings.TrimSpace(chains.Version),
	})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Suggestion: nf.Suggestion})
	case errors.Is(err, domain.ErrChainNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrLoopClosed):
		s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		s.logger.Warn(op+": engine is not running", "error", err)
	default:
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		s.logger.Error(op+" failed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
