package loop_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/chains/internal/testutils"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/aretw0/chains/pkg/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, l *loop.Loop) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()
	t.Cleanup(l.Close)
	return errc
}

func TestLoop_RunPendingKeepsOrder(t *testing.T) {
	l := loop.New()
	rec := &testutils.Recorder{}

	require.True(t, l.Post(rec.Add("a")))
	require.True(t, l.Post(func() {
		rec.Record("b")
		l.Post(rec.Add("d"))
	}))
	require.True(t, l.Post(rec.Add("c")))
	assert.Equal(t, 3, l.Len())

	n := l.RunPending()
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rec.Events())
	assert.Zero(t, l.Len())
}

func TestLoop_DoWaitsForTask(t *testing.T) {
	l := loop.New()
	startLoop(t, l)

	var got int
	err := l.Do(context.Background(), func() { got = 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestLoop_ClosedLoopRefusesWork(t *testing.T) {
	l := loop.New()
	l.Close()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), domain.ErrLoopClosed)

	select {
	case <-l.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestLoop_DoHonorsContext(t *testing.T) {
	l := loop.New() // never run

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Do(ctx, func() {}), context.Canceled)
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.False(t, l.Post(func() {}))
}

func TestLoop_RunReturnsConfigError(t *testing.T) {
	l := loop.New()
	reg := chain.NewRegistry(chain.WithScheduler(l))

	c := reg.New("broken", nil).AddStep(chain.Step{})
	l.Post(func() { _ = c.Start(nil) })

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAction)
	cfgErr, ok := domain.AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, "broken", cfgErr.ChainID)
}

func TestTimer_StopDiscardsQueuedFire(t *testing.T) {
	l := loop.New()
	rec := &testutils.Recorder{}

	timer := l.AfterFunc(time.Millisecond, rec.Add("fired"))
	require.Eventually(t, func() bool { return l.Len() == 1 }, time.Second, time.Millisecond)

	timer.Stop()
	l.RunPending()
	assert.Empty(t, rec.Events())
}

func TestTimer_Restart(t *testing.T) {
	l := loop.New()
	rec := &testutils.Recorder{}

	timer := l.NewTimer(time.Millisecond, rec.Add("fired"))
	timer.Start()
	require.Eventually(t, func() bool { return l.Len() == 1 }, time.Second, time.Millisecond)

	// Re-arming invalidates the queued fire of the previous run.
	timer.Start()
	require.Eventually(t, func() bool { return l.Len() == 2 }, time.Second, time.Millisecond)
	l.RunPending()
	assert.Equal(t, []string{"fired"}, rec.Events())
}

func TestLoop_DrivesChains(t *testing.T) {
	l := loop.New()
	startLoop(t, l)
	reg := chain.NewRegistry(chain.WithScheduler(l))
	rec := &testutils.Recorder{}

	completed := make(chan struct{})
	var startErr error
	require.NoError(t, l.Do(context.Background(), func() {
		a := reg.New("a", nil).AddWait(5*time.Millisecond).AddNoWait(rec.Add("a"), nil)
		b := reg.New("b", nil).AddWait(10*time.Millisecond).AddNoWait(rec.Add("b"), nil)
		startErr = chain.StartAllParallel(func() {
			rec.Record("all")
			close(completed)
		}, a, b)
	}))
	require.NoError(t, startErr)

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("chains did not complete")
	}
	assert.Equal(t, []string{"a", "b", "all"}, rec.Events())

	var live int
	require.NoError(t, l.Do(context.Background(), func() { live = reg.Len() }))
	assert.Zero(t, live)
}
