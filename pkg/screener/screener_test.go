package screener

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/indicator"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
)

type fakeSource struct {
	mu sync.Mutex

	markets types.MarketMap
	klines  map[string]types.KLineWindow
	tickers map[string]types.Ticker

	klinesErr error

	tickerCalls     int
	bulkTickerCalls int
}

func (f *fakeSource) QueryMarkets(ctx context.Context) (types.MarketMap, error) {
	return f.markets, nil
}

func (f *fakeSource) QueryKLines(ctx context.Context, symbol string, interval types.Interval, limit int) (types.KLineWindow, error) {
	if f.klinesErr != nil {
		return nil, f.klinesErr
	}

	return f.klines[symbol], nil
}

func (f *fakeSource) QueryTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	f.mu.Lock()
	f.tickerCalls++
	f.mu.Unlock()

	ticker, ok := f.tickers[symbol]
	if !ok {
		return nil, errors.Errorf("no ticker of %s", symbol)
	}

	return &ticker, nil
}

func (f *fakeSource) QueryTickers(ctx context.Context, symbols ...string) (map[string]types.Ticker, error) {
	f.mu.Lock()
	f.bulkTickerCalls++
	f.mu.Unlock()

	out := make(map[string]types.Ticker)
	for _, symbol := range symbols {
		if ticker, ok := f.tickers[symbol]; ok {
			out[symbol] = ticker
		}
	}

	return out, nil
}

func (f *fakeSource) calls() (single, bulk int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickerCalls, f.bulkTickerCalls
}

func prepareDB(t *testing.T) *service.DatabaseService {
	t.Helper()

	db := service.NewDatabaseService("sqlite3", ":memory:")
	require.NoError(t, db.Connect())
	require.NoError(t, db.Upgrade(context.Background()))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testConfig shrinks the indicator windows so a handful of closes already
// yields complete readings.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Screener.StochRSI = indicator.Config{RSILength: 2, StochLength: 2, KSmooth: 1, DSmooth: 1}
	cfg.Screener.Timeframes = []types.Interval{types.Interval1h}
	cfg.Screener.KLineLimit = 10
	return cfg
}

func newTestScreener(t *testing.T, source *fakeSource) (*Screener, *service.DatabaseService) {
	t.Helper()

	db := prepareDB(t)
	store := service.NewMemoryService().NewStore("screener", "volumes")
	return New(source, db.DB, store, testConfig()), db
}

func testWindow(symbol string, interval types.Interval, closes []float64) types.KLineWindow {
	var w types.KLineWindow
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		startTime := start.Add(time.Duration(i) * time.Hour)
		w = append(w, types.KLine{
			Symbol:    symbol,
			Interval:  interval,
			StartTime: startTime,
			EndTime:   startTime.Add(time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Closed:    true,
		})
	}

	return w
}

// mixedCloses produces five complete readings under the 2/2/1/1 test
// windows, the last one K=100 D=100 RSI=84.1121.
var mixedCloses = []float64{10.0, 11.0, 10.5, 11.5, 12.0, 11.0, 12.5, 13.0}

func TestScreener_ListSymbols(t *testing.T) {
	source := &fakeSource{
		markets: types.MarketMap{
			"BTCUSDT":  {Symbol: "BTCUSDT", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USDT"},
			"ETHUSDT":  {Symbol: "ETHUSDT", Status: "TRADING", BaseAsset: "ETH", QuoteAsset: "USDT"},
			"XRPBTC":   {Symbol: "XRPBTC", Status: "TRADING", BaseAsset: "XRP", QuoteAsset: "BTC"},
			"DOGEUSDT": {Symbol: "DOGEUSDT", Status: "BREAK", BaseAsset: "DOGE", QuoteAsset: "USDT"},
		},
	}

	sc, _ := newTestScreener(t, source)
	ctx := context.Background()

	t.Run("trading symbols only", func(t *testing.T) {
		symbols, err := sc.ListSymbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "XRPBTC"}, symbols)
	})

	t.Run("quote asset filter", func(t *testing.T) {
		sc.Config.Screener.QuoteAsset = "USDT"
		defer func() { sc.Config.Screener.QuoteAsset = "" }()

		symbols, err := sc.ListSymbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
	})

	t.Run("symbol limit", func(t *testing.T) {
		sc.Config.Screener.SymbolLimit = 1
		defer func() { sc.Config.Screener.SymbolLimit = 0 }()

		symbols, err := sc.ListSymbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTCUSDT"}, symbols)
	})
}

func TestScreener_ScreenSymbol(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a complete reading", func(t *testing.T) {
		source := &fakeSource{
			markets: types.MarketMap{
				"BTCUSDT": {Symbol: "BTCUSDT", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USDT"},
			},
			klines: map[string]types.KLineWindow{
				"BTCUSDT": testWindow("BTCUSDT", types.Interval1h, mixedCloses),
			},
		}

		sc, _ := newTestScreener(t, source)
		_, err := sc.ListSymbols(ctx)
		require.NoError(t, err)
		sc.volumes["BTCUSDT"] = 1234.5

		report, err := sc.ScreenSymbol(ctx, "BTCUSDT", types.Interval1h)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.True(t, report.Persisted)
		assert.Equal(t, "BTCUSDT", report.Symbol)
		assert.Equal(t, types.Interval1h, report.Timeframe)
		assert.Equal(t, len(mixedCloses), report.TotalCandles)

		require.NotNil(t, report.Current)
		require.True(t, report.Current.Valid())
		assert.Equal(t, 100.0, *report.Current.K)
		assert.Equal(t, 100.0, *report.Current.D)
		require.NotNil(t, report.Current.RSI)
		assert.Equal(t, 84.1121, *report.Current.RSI, "report values are rounded to 4 decimals")

		require.Len(t, report.LastValues, 5)
		assert.Equal(t, 0.0, *report.LastValues[2].K, "the dip keeps its real zero")

		reading, err := sc.ReadingService.Latest(ctx, "BTCUSDT", "1h")
		require.NoError(t, err)
		assert.Equal(t, 100.0, *reading.K)
		assert.Equal(t, 84.1121, *reading.RSI)

		history, err := sc.ReadingService.History(ctx, "BTCUSDT", "1h")
		require.NoError(t, err)
		require.Len(t, history, 5)
		assert.Equal(t, int64(1), history[0].Sequence)
		assert.Equal(t, int64(5), history[4].Sequence)

		closes, err := sc.CandleService.Closes(ctx, "BTCUSDT", "1h")
		require.NoError(t, err)
		assert.Equal(t, mixedCloses, []float64(closes))

		volume, err := sc.SymbolService.SymbolVolume(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, 1234.5, volume)
	})

	t.Run("not enough candles", func(t *testing.T) {
		source := &fakeSource{
			klines: map[string]types.KLineWindow{
				"NEWUSDT": testWindow("NEWUSDT", types.Interval1h, []float64{10.0, 11.0, 10.5}),
			},
		}

		sc, _ := newTestScreener(t, source)

		report, err := sc.ScreenSymbol(ctx, "NEWUSDT", types.Interval1h)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.False(t, report.Persisted)
		assert.Equal(t, 3, report.TotalCandles)
		assert.Empty(t, report.LastValues)
		require.NotNil(t, report.Current)
		assert.Nil(t, report.Current.K)
		assert.Nil(t, report.Current.D)

		_, err = sc.ReadingService.Latest(ctx, "NEWUSDT", "1h")
		assert.True(t, errors.Is(err, service.ErrReadingNotFound))
	})

	t.Run("fetch error", func(t *testing.T) {
		source := &fakeSource{klinesErr: errors.New("dial tcp: connection refused")}
		sc, _ := newTestScreener(t, source)

		report, err := sc.ScreenSymbol(ctx, "BTCUSDT", types.Interval1h)
		assert.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("empty response", func(t *testing.T) {
		source := &fakeSource{klines: map[string]types.KLineWindow{}}
		sc, _ := newTestScreener(t, source)

		_, err := sc.ScreenSymbol(ctx, "GONEUSDT", types.Interval1h)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty kline response")
	})
}

func TestScreener_ScreenAll(t *testing.T) {
	ctx := context.Background()

	source := &fakeSource{
		klines: map[string]types.KLineWindow{
			"BTCUSDT": testWindow("BTCUSDT", types.Interval1h, mixedCloses),
			// ETHUSDT is missing, its report carries the error inline
		},
	}

	sc, _ := newTestScreener(t, source)

	reports, err := sc.ScreenAll(ctx, []string{"BTCUSDT", "ETHUSDT"}, types.Interval1h)
	assert.Error(t, err, "the missing symbol surfaces in the combined error")
	require.Len(t, reports, 2)

	assert.True(t, reports[0].Persisted)
	assert.Empty(t, reports[0].Error)

	assert.False(t, reports[1].Persisted)
	assert.Equal(t, "ETHUSDT", reports[1].Symbol)
	assert.Contains(t, reports[1].Error, "empty kline response")
}

func TestScreener_PrefetchVolumes(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot, database and exchange", func(t *testing.T) {
		source := &fakeSource{
			tickers: map[string]types.Ticker{
				"SOLUSDT": {Symbol: "SOLUSDT", Last: 150.0, Volume: 10.0, QuoteVolume: 999.0},
			},
		}

		sc, _ := newTestScreener(t, source)

		// BTCUSDT comes from the snapshot of a previous run
		require.NoError(t, sc.Store.Save(map[string]float64{"BTCUSDT": 7777.0}))

		// ETHUSDT is already stored in the database
		_, err := sc.SymbolService.GetOrCreateSymbol(ctx, "ETHUSDT", "ETH", "USDT", 5000.0)
		require.NoError(t, err)

		require.NoError(t, sc.PrefetchVolumes(ctx, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}))

		assert.Equal(t, 7777.0, sc.Volume("BTCUSDT"))
		assert.Equal(t, 5000.0, sc.Volume("ETHUSDT"))
		assert.Equal(t, 999.0, sc.Volume("SOLUSDT"))

		single, bulk := source.calls()
		assert.Equal(t, 1, single, "only the missing symbol hits the exchange")
		assert.Equal(t, 0, bulk)

		var snapshot map[string]float64
		require.NoError(t, sc.Store.Load(&snapshot))
		assert.Equal(t, 999.0, snapshot["SOLUSDT"], "fetched volumes are persisted for the next run")
	})

	t.Run("bulk fetch for many missing symbols", func(t *testing.T) {
		tickers := make(map[string]types.Ticker)
		var symbols []string
		for i := 0; i < bulkTickerThreshold+10; i++ {
			symbol := fmt.Sprintf("COIN%03dUSDT", i)
			symbols = append(symbols, symbol)
			tickers[symbol] = types.Ticker{Symbol: symbol, QuoteVolume: float64(i + 1)}
		}

		source := &fakeSource{tickers: tickers}
		sc, _ := newTestScreener(t, source)

		require.NoError(t, sc.PrefetchVolumes(ctx, symbols))

		single, bulk := source.calls()
		assert.Equal(t, 0, single)
		assert.Equal(t, 1, bulk, "one request covers the whole batch")
		assert.Equal(t, 1.0, sc.Volume("COIN000USDT"))
		assert.Equal(t, float64(len(symbols)), sc.Volume(symbols[len(symbols)-1]))
	})

	t.Run("nothing missing", func(t *testing.T) {
		source := &fakeSource{}
		sc, _ := newTestScreener(t, source)

		_, err := sc.SymbolService.GetOrCreateSymbol(ctx, "BTCUSDT", "BTC", "USDT", 42.0)
		require.NoError(t, err)

		require.NoError(t, sc.PrefetchVolumes(ctx, []string{"BTCUSDT"}))

		single, bulk := source.calls()
		assert.Zero(t, single)
		assert.Zero(t, bulk)
	})
}
