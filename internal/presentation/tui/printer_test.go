package tui_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/chains/internal/presentation/tui"
	"github.com/aretw0/chains/internal/testutils"
	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_Hooks(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPrinter(&buf, false, termenv.WithProfile(termenv.Ascii))

	reg := chain.NewRegistry(
		chain.WithScheduler(testutils.NewManualScheduler()),
		chain.WithLifecycleHooks(p.Hooks()),
	)
	c := reg.New("intro", nil).AddNoWait(func() { p.Say("intro", "hello") }, nil)
	require.NoError(t, c.Start(nil))
	require.NoError(t, reg.New("loop", nil).AddManual(func(func()) {}, nil).StartParallel(nil))
	reg.Stop("loop", true)

	out := buf.String()
	assert.Contains(t, out, "start   intro (sequential, 1 steps)")
	assert.Contains(t, out, "[intro] hello")
	assert.Contains(t, out, "done    intro")
	assert.Contains(t, out, "stop    loop (stopped, forced)")
	assert.NotContains(t, out, "step ", "step activations are verbose only")
}

func TestPrinter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPrinter(&buf, true, termenv.WithProfile(termenv.Ascii))

	p.Hooks().OnStepActivate(context.Background(), &domain.ChainEvent{
		EventBase: domain.EventBase{Type: domain.EventStepActivate},
		ChainID:   "intro",
		Step:      0,
		Steps:     3,
	})
	assert.Equal(t, "step    intro (1/3)\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
}
