package types

import (
	"fmt"
	"time"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/datatype/floats"
)

// KLine is a closed candlestick of one symbol at one interval.
type KLine struct {
	Symbol   string   `json:"symbol"`
	Interval Interval `json:"interval"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	Volume      float64 `json:"volume"`
	QuoteVolume float64 `json:"quoteVolume"`

	Closed bool `json:"closed"`
}

func (k KLine) String() string {
	return fmt.Sprintf("%s %s O:%f H:%f L:%f C:%f V:%f %s",
		k.Symbol, k.Interval, k.Open, k.High, k.Low, k.Close, k.Volume,
		k.StartTime.Format("2006-01-02 15:04"))
}

type KLineWindow []KLine

func (k KLineWindow) Len() int {
	return len(k)
}

func (k KLineWindow) Last() KLine {
	return k[len(k)-1]
}

// Closes collects the close prices in window order.
func (k KLineWindow) Closes() (closes floats.Slice) {
	for _, kline := range k {
		closes.Push(kline.Close)
	}
	return closes
}

// OpenTimes collects the open timestamps in window order.
func (k KLineWindow) OpenTimes() (ts []time.Time) {
	for _, kline := range k {
		ts = append(ts, kline.StartTime)
	}
	return ts
}

// Truncate keeps the last size klines of the window.
func (k KLineWindow) Truncate(size int) KLineWindow {
	if len(k) <= size {
		return k
	}

	return k[len(k)-size:]
}
