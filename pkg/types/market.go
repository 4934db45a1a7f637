package types

import "sort"

// Market is the futures symbol metadata from the exchange info endpoint.
type Market struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

func (m Market) IsTrading() bool {
	return m.Status == "TRADING"
}

type MarketMap map[string]Market

func (m MarketMap) Add(market Market) {
	m[market.Symbol] = market
}

func (m MarketMap) Has(symbol string) bool {
	_, ok := m[symbol]
	return ok
}

// TradingSymbols returns the actively trading symbols in lexical order.
func (m MarketMap) TradingSymbols() (symbols []string) {
	for symbol, market := range m {
		if !market.IsTrading() {
			continue
		}
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)
	return symbols
}
