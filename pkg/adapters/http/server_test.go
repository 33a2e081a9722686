package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockController for testing
type MockController struct {
	chains  map[string]domain.ChainInfo
	stopped map[string]bool
	err     error
}

func newMockController(ids ...string) *MockController {
	m := &MockController{chains: map[string]domain.ChainInfo{}, stopped: map[string]bool{}}
	for _, id := range ids {
		m.chains[id] = domain.ChainInfo{ID: id, Mode: domain.ModeSequential, State: domain.StateRunning, Steps: 2}
	}
	return m
}

func (m *MockController) List(ctx context.Context) ([]domain.ChainInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ChainInfo
	for _, info := range m.chains {
		out = append(out, info)
	}
	return out, nil
}

func (m *MockController) Info(ctx context.Context, id string) (domain.ChainInfo, error) {
	info, ok := m.chains[id]
	if !ok {
		return domain.ChainInfo{}, &domain.NotFoundError{ID: id, Suggestion: "intro"}
	}
	return info, nil
}

func (m *MockController) Stop(ctx context.Context, id string, force bool) error {
	if _, ok := m.chains[id]; !ok {
		return &domain.NotFoundError{ID: id}
	}
	delete(m.chains, id)
	m.stopped[id] = force
	return nil
}

func (m *MockController) StopAll(ctx context.Context) (int, error) {
	n := len(m.chains)
	for id := range m.chains {
		m.stopped[id] = false
	}
	m.chains = map[string]domain.ChainInfo{}
	return n, nil
}

func (m *MockController) IsFinished(ctx context.Context, id string) (bool, error) {
	_, ok := m.chains[id]
	return !ok, nil
}

func serve(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestListChains(t *testing.T) {
	handler := NewHandler(newMockController("intro"))

	w := serve(handler, http.MethodGet, "/chains")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var infos []domain.ChainInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "intro", infos[0].ID)
	assert.Equal(t, domain.StateRunning, infos[0].State)
}

func TestListChains_EmptyIsArray(t *testing.T) {
	w := serve(NewHandler(newMockController()), http.MethodGet, "/chains")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetChain(t *testing.T) {
	handler := NewHandler(newMockController("intro"))

	w := serve(handler, http.MethodGet, "/chains/intro")
	require.Equal(t, http.StatusOK, w.Code)
	var info domain.ChainInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "intro", info.ID)

	w = serve(handler, http.MethodGet, "/chains/intor")
	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "intro", resp.Suggestion)
	assert.Contains(t, resp.Error, "intor")
}

func TestStopChain(t *testing.T) {
	ctrl := newMockController("intro", "outro")
	handler := NewHandler(ctrl)

	w := serve(handler, http.MethodPost, "/chains/intro/stop?force=true")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, ctrl.stopped["intro"])

	w = serve(handler, http.MethodPost, "/chains/outro/stop")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, ctrl.stopped["outro"])

	w = serve(handler, http.MethodPost, "/chains/intro/stop")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopChain_InvalidForce(t *testing.T) {
	ctrl := newMockController("intro")
	w := serve(NewHandler(ctrl), http.MethodPost, "/chains/intro/stop?force=maybe")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, ctrl.chains, "intro")
}

func TestStopAll(t *testing.T) {
	ctrl := newMockController("a", "b")
	w := serve(NewHandler(ctrl), http.MethodPost, "/chains/stop")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stopped": 2}`, w.Body.String())
	assert.Empty(t, ctrl.chains)
}

func TestIsFinished(t *testing.T) {
	handler := NewHandler(newMockController("intro"))

	w := serve(handler, http.MethodGet, "/chains/intro/finished")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"finished": false}`, w.Body.String())

	w = serve(handler, http.MethodGet, "/chains/unknown/finished")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"finished": true}`, w.Body.String())
}

func TestControllerErrors(t *testing.T) {
	ctrl := newMockController()
	ctrl.err = domain.ErrLoopClosed
	w := serve(NewHandler(ctrl), http.MethodGet, "/chains")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ctrl.err = assert.AnError
	w = serve(NewHandler(ctrl), http.MethodGet, "/chains")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndInfo(t *testing.T) {
	handler := NewHandler(newMockController())

	w := serve(handler, http.MethodGet, "/health")
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = serve(handler, http.MethodGet, "/info")
	var info map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "chains-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestCORS(t *testing.T) {
	w := serve(NewHandler(newMockController()), http.MethodOptions, "/chains")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "chains_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	w := serve(NewHandler(newMockController(), WithMetrics(reg)), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chains_test_total 1")

	w = serve(NewHandler(newMockController()), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code, "metrics are opt-in")
}

func TestSubscribeEvents_FiltersByChain(t *testing.T) {
	streams := NewStreamManager(4, nil)
	srv := httptest.NewServer(NewHandler(newMockController(), WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?chain_id=intro", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	require.Equal(t, "connected", readData())

	hooks := streams.Hooks()
	hooks.Emit(ctx, &domain.ChainEvent{EventBase: domain.EventBase{Type: domain.EventChainStart}, ChainID: "other"})
	hooks.Emit(ctx, &domain.ChainEvent{EventBase: domain.EventBase{Type: domain.EventChainFinish}, ChainID: "intro"})

	var e domain.ChainEvent
	require.NoError(t, json.Unmarshal([]byte(readData()), &e))
	assert.Equal(t, "intro", e.ChainID)
	assert.Equal(t, domain.EventChainFinish, e.Type)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	streams := NewStreamManager(1, nil)
	all, cancelAll := streams.Subscribe("")
	one, cancelOne := streams.Subscribe("x")
	assert.Equal(t, 2, streams.Subscribers())

	streams.Broadcast(&domain.ChainEvent{ChainID: "x"})
	streams.Broadcast(&domain.ChainEvent{ChainID: "x"})
	assert.Len(t, all, 1)
	assert.Len(t, one, 1)

	cancelOne()
	cancelOne()
	cancelAll()
	assert.Equal(t, 0, streams.Subscribers())
}
