package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeHooks(t *testing.T) {
	var calls []string
	record := func(label string) func(context.Context, *domain.ChainEvent) {
		return func(_ context.Context, e *domain.ChainEvent) {
			calls = append(calls, label+":"+e.ChainID)
		}
	}

	merged := domain.MergeHooks(
		domain.LifecycleHooks{OnChainStart: record("first")},
		domain.LifecycleHooks{},
		domain.LifecycleHooks{OnChainStart: record("second"), OnChainStop: record("stop")},
	)

	ctx := context.Background()
	merged.Emit(ctx, &domain.ChainEvent{EventBase: domain.EventBase{Type: domain.EventChainStart}, ChainID: "a"})
	merged.Emit(ctx, &domain.ChainEvent{EventBase: domain.EventBase{Type: domain.EventChainStop}, ChainID: "b"})
	merged.Emit(ctx, &domain.ChainEvent{EventBase: domain.EventBase{Type: domain.EventChainFinish}, ChainID: "c"})

	assert.Equal(t, []string{"first:a", "second:a", "stop:b"}, calls)
	assert.Nil(t, merged.OnChainFinish, "no set handles finish")
}

func TestEmit_UnknownTypeIsIgnored(t *testing.T) {
	called := false
	hooks := domain.LifecycleHooks{OnChainStart: func(context.Context, *domain.ChainEvent) { called = true }}
	hooks.Emit(context.Background(), &domain.ChainEvent{EventBase: domain.EventBase{Type: "bogus"}})
	assert.False(t, called)
}

func TestAsConfigError(t *testing.T) {
	cfgErr := &domain.ConfigError{ChainID: "c", Cursor: 2, Err: domain.ErrMissingAction}

	got, ok := domain.AsConfigError(cfgErr)
	require.True(t, ok)
	assert.Same(t, cfgErr, got)
	assert.ErrorIs(t, got, domain.ErrMissingAction)
	assert.Equal(t, `chain "c": cursor 2: step has no action`, got.Error())

	got, ok = domain.AsConfigError(fmt.Errorf("wrapped: %w", cfgErr))
	require.True(t, ok)
	assert.Same(t, cfgErr, got)

	_, ok = domain.AsConfigError("not an error")
	assert.False(t, ok)
	_, ok = domain.AsConfigError(errors.New("plain"))
	assert.False(t, ok)
}

func TestNotFoundError(t *testing.T) {
	err := error(&domain.NotFoundError{ID: "intr", Suggestion: "intro"})
	assert.ErrorIs(t, err, domain.ErrChainNotFound)
	assert.Equal(t, `chain "intr" not found, did you mean "intro"?`, err.Error())

	err = &domain.NotFoundError{ID: "x"}
	assert.Equal(t, `chain "x" not found`, err.Error())
}

func TestChainState_Terminal(t *testing.T) {
	assert.False(t, domain.StateNotStarted.Terminal())
	assert.False(t, domain.StateRunning.Terminal())
	assert.True(t, domain.StateFinished.Terminal())
	assert.True(t, domain.StateStopped.Terminal())
}
