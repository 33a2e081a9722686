package chains_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/chains"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEngine runs eng on a background goroutine for the duration of the test.
func startEngine(t *testing.T, eng *chains.Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})
}

func seeder(eng *chains.Engine) ports.Seeder {
	return func(t *testing.T, ids ...string) {
		t.Helper()
		var startErr error
		err := eng.Do(context.Background(), func(reg *chain.Registry) {
			for _, id := range ids {
				if err := reg.New(id, nil).AddManual(func(func()) {}, nil).Start(nil); err != nil {
					startErr = err
				}
			}
		})
		require.NoError(t, err)
		require.NoError(t, startErr)
	}
}

func TestEngine_ChainController(t *testing.T) {
	eng := chains.New()
	startEngine(t, eng)

	ports.RunChainControllerContract(t, eng, seeder(eng))
}

func TestEngine_RunsWaitStepsOnTheLoop(t *testing.T) {
	eng := chains.New()
	startEngine(t, eng)

	done := make(chan []string, 1)
	var order []string
	err := eng.Do(context.Background(), func(reg *chain.Registry) {
		_ = reg.New("intro", func() { done <- order }).
			AddNoWait(func() { order = append(order, "fade") }, nil).
			AddWait(10*time.Millisecond).
			AddFunc(func() { order = append(order, "title") }, nil).
			Start(nil)
	})
	require.NoError(t, err)

	select {
	case got := <-done:
		assert.Equal(t, []string{"fade", "title"}, got)
	case <-time.After(time.Second):
		t.Fatal("chain did not complete")
	}

	finished, err := eng.IsFinished(context.Background(), "intro")
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestEngine_HooksFanOut(t *testing.T) {
	var a, b []domain.EventType
	eng := chains.New(
		chains.WithLifecycleHooks(domain.LifecycleHooks{
			OnChainStart: func(_ context.Context, e *domain.ChainEvent) { a = append(a, e.Type) },
		}),
		chains.WithLifecycleHooks(domain.LifecycleHooks{
			OnChainStart:  func(_ context.Context, e *domain.ChainEvent) { b = append(b, e.Type) },
			OnChainFinish: func(_ context.Context, e *domain.ChainEvent) { b = append(b, e.Type) },
		}),
	)

	eng.Post(func(reg *chain.Registry) {
		_ = reg.New("x", nil).AddNoWait(func() {}, nil).Start(nil)
	})
	assert.Equal(t, 1, eng.Loop().RunPending())

	assert.Equal(t, []domain.EventType{domain.EventChainStart}, a)
	assert.Equal(t, []domain.EventType{domain.EventChainStart, domain.EventChainFinish}, b)
}

func TestEngine_RunReturnsConfigError(t *testing.T) {
	eng := chains.New()
	eng.Post(func(reg *chain.Registry) {
		_ = reg.New("broken", nil).AddStep(chain.Step{Mode: domain.StepBlocking}).Start(nil)
	})

	err := eng.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingAction)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "broken", cfgErr.ChainID)
}

func TestEngine_RunStopsLiveChains(t *testing.T) {
	var stopped []string
	eng := chains.New(chains.WithLifecycleHooks(domain.LifecycleHooks{
		OnChainStop: func(_ context.Context, e *domain.ChainEvent) { stopped = append(stopped, e.ChainID) },
	}))
	eng.Post(func(reg *chain.Registry) {
		_ = reg.New("pending", nil).AddManual(func(func()) {}, nil).Start(nil)
		eng.Close()
	})

	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"pending"}, stopped)
}

func TestEngine_ClosedEngineRefusesWork(t *testing.T) {
	eng := chains.New()
	eng.Close()

	assert.False(t, eng.Post(func(*chain.Registry) {}))
	_, err := eng.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrLoopClosed)
}

func TestSuggest(t *testing.T) {
	ids := []string{"intro", "outro", "credits"}

	assert.Equal(t, "intro", chains.Suggest("intor", ids))
	assert.Equal(t, "credits", chains.Suggest("credit", ids))
	assert.Empty(t, chains.Suggest("battle", ids))
	assert.Empty(t, chains.Suggest("intro", nil))
}
