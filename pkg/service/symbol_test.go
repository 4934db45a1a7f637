package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolService(t *testing.T) {
	ds := prepareDB(t)
	defer ds.Close()

	ctx := context.Background()
	svc := &SymbolService{DB: ds.DB}

	t.Run("get or create symbol", func(t *testing.T) {
		id, err := svc.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 1200.0)
		assert.NoError(t, err)
		assert.NotZero(t, id)

		again, err := svc.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 0)
		assert.NoError(t, err)
		assert.Equal(t, id, again)
	})

	t.Run("volume only raises", func(t *testing.T) {
		volume, err := svc.SymbolVolume(ctx, "BTCUSDT")
		assert.NoError(t, err)
		assert.Equal(t, 1200.0, volume)

		_, err = svc.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 3000.0)
		assert.NoError(t, err)

		volume, err = svc.SymbolVolume(ctx, "BTCUSDT")
		assert.NoError(t, err)
		assert.Equal(t, 3000.0, volume)

		_, err = svc.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 100.0)
		assert.NoError(t, err)

		volume, err = svc.SymbolVolume(ctx, "BTCUSDT")
		assert.NoError(t, err)
		assert.Equal(t, 3000.0, volume)
	})

	t.Run("symbols by volume", func(t *testing.T) {
		_, err := svc.GetOrCreateSymbol(ctx, "ETHUSDT", "ETH", "USDT", 5000.0)
		assert.NoError(t, err)
		_, err = svc.GetOrCreateSymbol(ctx, "ZZZUSDT", "ZZZ", "USDT", 0)
		assert.NoError(t, err)
		_, err = svc.GetOrCreateSymbol(ctx, "AAAUSDT", "AAA", "USDT", 0)
		assert.NoError(t, err)

		symbols, err := svc.SymbolsByVolume(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"ETHUSDT", "BTCUSDT", "AAAUSDT", "ZZZUSDT"}, symbols)
	})

	t.Run("symbols alphabetical", func(t *testing.T) {
		symbols, err := svc.Symbols(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"AAAUSDT", "BTCUSDT", "ETHUSDT", "ZZZUSDT"}, symbols)
	})

	t.Run("symbol volumes map", func(t *testing.T) {
		volumes, err := svc.SymbolVolumes(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 3000.0, volumes["BTCUSDT"])
		assert.Equal(t, 5000.0, volumes["ETHUSDT"])
		assert.Equal(t, 0.0, volumes["AAAUSDT"])
	})

	t.Run("unknown symbol volume", func(t *testing.T) {
		volume, err := svc.SymbolVolume(ctx, "NOPEUSDT")
		assert.NoError(t, err)
		assert.Zero(t, volume)
	})

	t.Run("timeframes", func(t *testing.T) {
		id, err := svc.GetOrCreateTimeframe(ctx, "1h")
		assert.NoError(t, err)
		assert.NotZero(t, id)

		again, err := svc.GetOrCreateTimeframe(ctx, "1h")
		assert.NoError(t, err)
		assert.Equal(t, id, again)

		_, err = svc.GetOrCreateTimeframe(ctx, "15m")
		assert.NoError(t, err)

		timeframes, err := svc.Timeframes(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"15m", "1h"}, timeframes)
	})
}
