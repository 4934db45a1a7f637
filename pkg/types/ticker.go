package types

import (
	"fmt"
	"time"
)

// Ticker is the rolling 24h statistics of one symbol.
type Ticker struct {
	Symbol string
	Time   time.Time

	Open float64
	High float64
	Low  float64
	Last float64

	// Volume is the base asset volume, QuoteVolume the quote asset turnover
	Volume      float64
	QuoteVolume float64
}

func (t Ticker) String() string {
	return fmt.Sprintf("%s last:%f vol:%f quoteVol:%f", t.Symbol, t.Last, t.Volume, t.QuoteVolume)
}
