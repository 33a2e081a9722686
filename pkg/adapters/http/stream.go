package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/chains/internal/logging"
	"github.com/aretw0/chains/pkg/domain"
)

// StreamManager fans chain events out to SSE subscribers.
// Subscribers register for one chain id, or for every chain with the empty id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ChainID -> Set of Channels
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a manager whose subscribers buffer up to buffer messages.
// A non-positive buffer defaults to 16.
func NewStreamManager(buffer int, logger *slog.Logger) *StreamManager {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a subscriber for chainID and returns its channel and the
// function that unregisters it.
func (sm *StreamManager) Subscribe(chainID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, sm.buffer)
	if _, ok := sm.subscribers[chainID]; !ok {
		sm.subscribers[chainID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[chainID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[chainID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, chainID)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

// Broadcast sends e to the subscribers of its chain and to the catch-all subscribers.
// It never blocks: a subscriber whose buffer is full misses the event.
func (sm *StreamManager) Broadcast(e *domain.ChainEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("StreamManager: event encode failed", "error", err)
		return
	}
	msg := string(data)

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, key := range []string{e.ChainID, ""} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping event", domain.KeyChainID, e.ChainID, "type", e.Type)
			}
		}
		if e.ChainID == "" {
			break
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	broadcast := func(_ context.Context, e *domain.ChainEvent) {
		sm.Broadcast(e)
	}
	return domain.LifecycleHooks{
		OnChainStart:    broadcast,
		OnStepActivate:  broadcast,
		OnChainFinish:   broadcast,
		OnChainStop:     broadcast,
		OnChainReplaced: broadcast,
	}
}

// SubscribeEvents handles the GET /events request (SSE). The optional chain_id query
// parameter restricts the stream to one chain.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	chainID := r.URL.Query().Get(domain.KeyChainID)
	ch, cancel := s.Streams.Subscribe(chainID)
	defer cancel()
	s.logger.Debug("SSE: client subscribed", domain.KeyChainID, chainID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", domain.KeyChainID, chainID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
