package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/datatype/floats"
)

func TestCandleService(t *testing.T) {
	ds := prepareDB(t)
	defer ds.Close()

	ctx := context.Background()
	symbols := &SymbolService{DB: ds.DB}
	svc := &CandleService{DB: ds.DB}

	symbolID, err := symbols.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 0)
	assert.NoError(t, err)

	timeframeID, err := symbols.GetOrCreateTimeframe(ctx, "1h")
	assert.NoError(t, err)

	t.Run("replace and read back", func(t *testing.T) {
		base := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)
		closes := floats.Slice{100.5, 101.0, 99.8}
		openTimes := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}

		err := svc.Replace(ctx, symbolID, timeframeID, closes, openTimes)
		assert.NoError(t, err)

		stored, err := svc.Closes(ctx, "BTCUSDT", "1h")
		assert.NoError(t, err)
		assert.Equal(t, closes, stored)
	})

	t.Run("replace wipes the previous window", func(t *testing.T) {
		base := time.Date(2023, 4, 2, 10, 0, 0, 0, time.UTC)
		closes := floats.Slice{55.5, 56.6}
		openTimes := []time.Time{base, base.Add(time.Hour)}

		err := svc.Replace(ctx, symbolID, timeframeID, closes, openTimes)
		assert.NoError(t, err)

		stored, err := svc.Closes(ctx, "BTCUSDT", "1h")
		assert.NoError(t, err)
		assert.Equal(t, closes, stored)
	})

	t.Run("missing open times fall back to the index", func(t *testing.T) {
		closes := floats.Slice{1.1, 2.2, 3.3}

		err := svc.Replace(ctx, symbolID, timeframeID, closes, nil)
		assert.NoError(t, err)

		stored, err := svc.Closes(ctx, "BTCUSDT", "1h")
		assert.NoError(t, err)
		assert.Equal(t, closes, stored)
	})

	t.Run("unknown pair reads empty", func(t *testing.T) {
		stored, err := svc.Closes(ctx, "NOPEUSDT", "1h")
		assert.NoError(t, err)
		assert.Empty(t, stored)
	})
}
