package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketMapTradingSymbols(t *testing.T) {
	m := MarketMap{}
	m.Add(Market{Symbol: "ETHUSDT", Status: "TRADING", BaseAsset: "ETH", QuoteAsset: "USDT"})
	m.Add(Market{Symbol: "BTCUSDT", Status: "TRADING", BaseAsset: "BTC", QuoteAsset: "USDT"})
	m.Add(Market{Symbol: "OLDUSDT", Status: "SETTLING", BaseAsset: "OLD", QuoteAsset: "USDT"})

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, m.TradingSymbols())
	assert.True(t, m.Has("OLDUSDT"))
	assert.False(t, m.Has("XRPUSDT"))
}
