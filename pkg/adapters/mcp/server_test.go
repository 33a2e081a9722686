package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, ids ...string) (*Server, *chains.Engine) {
	t.Helper()
	eng := chains.New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})

	err := eng.Do(ctx, func(reg *chain.Registry) {
		for _, id := range ids {
			_ = reg.New(id, nil).AddManual(func(func()) {}, nil).Start(nil)
		}
	})
	require.NoError(t, err)
	return NewServer(eng), eng
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func TestListChains(t *testing.T) {
	s, _ := newTestServer(t, "outro", "intro")

	res, err := s.handleListChains(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var infos []domain.ChainInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "intro", infos[0].ID)
	assert.Equal(t, "outro", infos[1].ID)
}

func TestGetChain_Miss(t *testing.T) {
	s, _ := newTestServer(t, "intro")

	res, err := s.handleGetChain(context.Background(), call(map[string]any{"id": "intr"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), `did you mean "intro"`)

	res, err = s.handleGetChain(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError, "id is required")
}

func TestStopChain(t *testing.T) {
	s, eng := newTestServer(t, "intro")
	ctx := context.Background()

	res, err := s.handleStopChain(ctx, call(map[string]any{"id": "intro", "force": true}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	finished, err := eng.IsFinished(ctx, "intro")
	require.NoError(t, err)
	assert.True(t, finished)

	res, err = s.handleStopChain(ctx, call(map[string]any{"id": "intro"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStopAllAndIsFinished(t *testing.T) {
	s, _ := newTestServer(t, "a", "b")
	ctx := context.Background()

	res, err := s.handleIsFinished(ctx, call(map[string]any{"id": "a"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"finished": false}`, resultText(t, res))

	res, err = s.handleStopAll(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "2 chains stopped", resultText(t, res))

	res, err = s.handleIsFinished(ctx, call(map[string]any{"id": "a"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"finished": true}`, resultText(t, res))
}

func TestEngineClosed(t *testing.T) {
	eng := chains.New()
	eng.Close()
	s := NewServer(eng)

	res, err := s.handleListChains(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), domain.ErrLoopClosed.Error())
}
