package binance

import (
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

func toGlobalMarket(symbol futures.Symbol) types.Market {
	return types.Market{
		Symbol:     symbol.Symbol,
		Status:     symbol.Status,
		BaseAsset:  symbol.BaseAsset,
		QuoteAsset: symbol.QuoteAsset,
	}
}

func toGlobalKLine(symbol string, interval types.Interval, k *futures.Kline) types.KLine {
	endTime := time.UnixMilli(k.CloseTime)
	return types.KLine{
		Symbol:      symbol,
		Interval:    interval,
		StartTime:   time.UnixMilli(k.OpenTime),
		EndTime:     endTime,
		Open:        util.MustParseFloat(k.Open),
		High:        util.MustParseFloat(k.High),
		Low:         util.MustParseFloat(k.Low),
		Close:       util.MustParseFloat(k.Close),
		Volume:      util.MustParseFloat(k.Volume),
		QuoteVolume: util.MustParseFloat(k.QuoteAssetVolume),
		Closed:      time.Now().After(endTime),
	}
}

func toGlobalTicker(stats *futures.PriceChangeStats) types.Ticker {
	return types.Ticker{
		Symbol:      stats.Symbol,
		Time:        time.UnixMilli(stats.CloseTime),
		Open:        util.MustParseFloat(stats.OpenPrice),
		High:        util.MustParseFloat(stats.HighPrice),
		Low:         util.MustParseFloat(stats.LowPrice),
		Last:        util.MustParseFloat(stats.LastPrice),
		Volume:      util.MustParseFloat(stats.Volume),
		QuoteVolume: util.MustParseFloat(stats.QuoteVolume),
	}
}
