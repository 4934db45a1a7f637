package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Run("load missing", func(t *testing.T) {
		store := NewMemoryService().NewStore("screener", "volumes")

		var snapshot map[string]float64
		assert.Equal(t, ErrPersistenceNotExists, store.Load(&snapshot))
	})

	t.Run("save and load", func(t *testing.T) {
		store := NewMemoryService().NewStore("screener", "volumes")

		require.NoError(t, store.Save(map[string]float64{"BTCUSDT": 1200.5}))

		var snapshot map[string]float64
		require.NoError(t, store.Load(&snapshot))
		assert.Equal(t, 1200.5, snapshot["BTCUSDT"])
	})

	t.Run("stores are isolated by key", func(t *testing.T) {
		mem := NewMemoryService()
		volumes := mem.NewStore("screener", "volumes")
		state := mem.NewStore("screener", "state")

		require.NoError(t, volumes.Save(map[string]float64{"BTCUSDT": 1.0}))

		var v int
		assert.Equal(t, ErrPersistenceNotExists, state.Load(&v))
	})

	t.Run("reset", func(t *testing.T) {
		store := NewMemoryService().NewStore("screener", "state")

		require.NoError(t, store.Save(42))
		require.NoError(t, store.Reset())

		var v int
		assert.Equal(t, ErrPersistenceNotExists, store.Load(&v))
	})
}
