package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
)

func TestReadingCache_Status(t *testing.T) {
	s := newTestServer(t)
	c := s.Cache

	assert.Equal(t, StatusOversold, c.status(0))
	assert.Equal(t, StatusOversold, c.status(19.99))
	assert.Equal(t, StatusNeutral, c.status(20), "the boundary itself is neutral")
	assert.Equal(t, StatusNeutral, c.status(50))
	assert.Equal(t, StatusNeutral, c.status(80))
	assert.Equal(t, StatusOverbought, c.status(80.01))
	assert.Equal(t, StatusOverbought, c.status(100))
}

func TestReadingCache_Refresh(t *testing.T) {
	ctx := context.Background()

	s := newTestServer(t)
	seedReading(t, s, "BTCUSDT", "1h", 9000, 10.0, 12.0, nil)

	c := s.Cache
	assert.True(t, c.Empty())
	assert.True(t, c.Stale(time.Minute))

	require.NoError(t, c.Refresh(ctx, []string{"BTCUSDT"}))

	assert.False(t, c.Empty())
	assert.False(t, c.Stale(time.Minute))
	assert.Equal(t, []string{"BTCUSDT"}, c.Symbols())

	entry := c.Entry("BTCUSDT", "1h")
	require.NotNil(t, entry)
	assert.Equal(t, 10.0, entry.K)
	assert.Equal(t, 12.0, entry.D)
	assert.Equal(t, 0.0, entry.RSI, "a null raw RSI collapses to 0 in the display cache")
	assert.Equal(t, StatusOversold, entry.Status)
	assert.False(t, entry.Timestamp.IsZero())

	row := c.Row("BTCUSDT")
	require.Len(t, row, 2, "every configured timeframe appears")
	assert.NotNil(t, row["1h"])
	assert.Nil(t, row["4h"], "missing readings stay explicit nulls")

	assert.Nil(t, c.Entry("GONEUSDT", "1h"))
}

func TestReadingCache_RefreshSymbol(t *testing.T) {
	ctx := context.Background()

	s := newTestServer(t)
	seedReading(t, s, "BTCUSDT", "1h", 9000, 10.0, 12.0, nil)

	c := s.Cache
	require.NoError(t, c.Refresh(ctx, []string{"BTCUSDT"}))

	seedReading(t, s, "ETHUSDT", "1h", 5000, 85.0, 83.0, fp(70.0))
	require.NoError(t, c.RefreshSymbol(ctx, "ETHUSDT"))

	assert.NotNil(t, c.Entry("BTCUSDT", "1h"), "existing symbols survive a single symbol refresh")

	entry := c.Entry("ETHUSDT", "1h")
	require.NotNil(t, entry)
	assert.Equal(t, StatusOverbought, entry.Status)
	assert.Equal(t, 70.0, entry.RSI)
}

func TestReadingCache_Restore(t *testing.T) {
	ctx := context.Background()

	s := newTestServer(t)
	seedReading(t, s, "BTCUSDT", "1h", 9000, 10.0, 12.0, nil)
	require.NoError(t, s.Cache.Refresh(ctx, []string{"BTCUSDT"}))

	// a fresh cache over the same store starts warm without touching the db
	restored := NewReadingCache(s.SymbolService.DB, s.Cache.store, s.Config)
	restored.Restore()

	assert.False(t, restored.Empty())
	assert.False(t, restored.Stale(time.Minute))

	entry := restored.Entry("BTCUSDT", "1h")
	require.NotNil(t, entry)
	assert.Equal(t, 10.0, entry.K)
}

func TestReadingCache_RestoreWithoutSnapshot(t *testing.T) {
	s := newTestServer(t)

	fresh := NewReadingCache(s.SymbolService.DB, service.NewMemoryService().NewStore("api", "other"), s.Config)
	fresh.Restore()

	assert.True(t, fresh.Empty())
	assert.True(t, fresh.Stale(time.Minute))
	assert.Equal(t, time.Duration(0), fresh.Age())
}
