package binance

import (
	"context"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util/backoff"
)

var log = logrus.WithFields(logrus.Fields{
	"exchange": "binance",
})

// Exchange queries the binance USD-M futures market data endpoints.
type Exchange struct {
	client  *futures.Client
	limiter *rate.Limiter
}

func New(key, secret string) *Exchange {
	client := futures.NewClient(key, secret)
	return &Exchange{
		client: client,
		// public market data default, see SetRateLimit
		limiter: rate.NewLimiter(rate.Every(time.Second/10), 2),
	}
}

// SetTimeout replaces the underlying http client with one bound to the
// given request timeout.
func (e *Exchange) SetTimeout(timeout time.Duration) {
	e.client.HTTPClient = &http.Client{Timeout: timeout}
}

// SetRateLimit replaces the shared market data limiter.
// The syntax is the one of util.ParseRateLimitSyntax, e.g. "2+10/1s".
func (e *Exchange) SetRateLimit(syntax string) error {
	limiter, err := util.ParseRateLimitSyntax(syntax)
	if err != nil {
		return errors.Wrapf(err, "invalid rate limit syntax: %s", syntax)
	}

	e.limiter = limiter
	return nil
}

func (e *Exchange) Name() string {
	return "binance"
}

// QueryMarkets loads the futures exchange info, retrying with exponential
// backoff until the context is canceled.
func (e *Exchange) QueryMarkets(ctx context.Context) (types.MarketMap, error) {
	log.Info("querying futures exchange info...")

	var exchangeInfo *futures.ExchangeInfo
	err := backoff.RetryGeneral(ctx, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		var err error
		exchangeInfo, err = e.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "can not query futures exchange info")
	}

	markets := types.MarketMap{}
	for _, symbol := range exchangeInfo.Symbols {
		markets.Add(toGlobalMarket(symbol))
	}

	return markets, nil
}

// QueryKLines returns the most recent klines of the symbol. The last entry
// may be the still running candle.
func (e *Exchange) QueryKLines(
	ctx context.Context, symbol string, interval types.Interval, limit int,
) (types.KLineWindow, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	log.Debugf("querying kline %s %s limit %d", symbol, interval, limit)

	req := e.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval))

	if limit > 0 {
		req = req.Limit(limit)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "can not query klines of %s %s", symbol, interval)
	}

	var window types.KLineWindow
	for _, k := range resp {
		window = append(window, toGlobalKLine(symbol, interval, k))
	}

	return window, nil
}

func (e *Exchange) QueryTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	stats, err := e.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "can not query 24h ticker of %s", symbol)
	}

	if len(stats) == 0 {
		return nil, errors.Errorf("empty 24h ticker response of %s", symbol)
	}

	ticker := toGlobalTicker(stats[0])
	return &ticker, nil
}

// QueryTickers returns the 24h tickers keyed by symbol. The endpoint returns
// every symbol in one call, so the result is filtered locally when symbols
// are given.
func (e *Exchange) QueryTickers(ctx context.Context, symbols ...string) (map[string]types.Ticker, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	stats, err := e.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can not query 24h tickers")
	}

	tickers := make(map[string]types.Ticker, len(stats))
	for _, s := range stats {
		tickers[s.Symbol] = toGlobalTicker(s)
	}

	if len(symbols) == 0 {
		return tickers, nil
	}

	selected := make(map[string]types.Ticker, len(symbols))
	for _, symbol := range symbols {
		if ticker, ok := tickers[symbol]; ok {
			selected[symbol] = ticker
		}
	}

	return selected, nil
}
