package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Seeder starts one chain per id. Seeded chains must keep running until stopped.
type Seeder func(t *testing.T, ids ...string)

// RunChainControllerContract runs a suite of tests to verify that a ChainController
// implementation adheres to the defined interface contract.
func RunChainControllerContract(t *testing.T, ctrl ChainController, seed Seeder) {
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		seed(t, "beta", "alpha")

		infos, err := ctrl.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "alpha", infos[0].ID)
		assert.Equal(t, "beta", infos[1].ID)
		for _, info := range infos {
			assert.Equal(t, domain.StateRunning, info.State)
		}

		n, err := ctrl.StopAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		infos, err = ctrl.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("Info", func(t *testing.T) {
		seed(t, "gamma")
		t.Cleanup(func() { _, _ = ctrl.StopAll(ctx) })

		info, err := ctrl.Info(ctx, "gamma")
		require.NoError(t, err)
		assert.Equal(t, "gamma", info.ID)
		assert.Equal(t, domain.StateRunning, info.State)
		assert.Positive(t, info.Steps)
	})

	t.Run("Info Miss Suggests Close Id", func(t *testing.T) {
		seed(t, "intro")
		t.Cleanup(func() { _, _ = ctrl.StopAll(ctx) })

		_, err := ctrl.Info(ctx, "intr")
		require.ErrorIs(t, err, domain.ErrChainNotFound)

		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "intr", nf.ID)
		assert.Equal(t, "intro", nf.Suggestion)

		_, err = ctrl.Info(ctx, "completely-unrelated")
		require.True(t, errors.As(err, &nf))
		assert.Empty(t, nf.Suggestion)
	})

	t.Run("Stop", func(t *testing.T) {
		seed(t, "delta")

		finished, err := ctrl.IsFinished(ctx, "delta")
		require.NoError(t, err)
		assert.False(t, finished)

		require.NoError(t, ctrl.Stop(ctx, "delta", false))

		finished, err = ctrl.IsFinished(ctx, "delta")
		require.NoError(t, err)
		assert.True(t, finished)

		err = ctrl.Stop(ctx, "delta", false)
		assert.ErrorIs(t, err, domain.ErrChainNotFound, "a stopped chain leaves the registry")
	})

	t.Run("IsFinished Miss", func(t *testing.T) {
		finished, err := ctrl.IsFinished(ctx, "never-registered")
		require.NoError(t, err)
		assert.True(t, finished)
	})
}
