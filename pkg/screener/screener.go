package screener

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	pb "github.com/cheggaaa/pb/v3"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/indicator"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/metrics"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

var log = logrus.WithField("service", "screener")

const (
	// volumeFetchWorkers caps the concurrent 24h ticker requests while
	// backfilling missing volumes one symbol at a time.
	volumeFetchWorkers = 10

	// bulkTickerThreshold switches the volume backfill to a single
	// all-symbols ticker request, one call instead of hundreds.
	bulkTickerThreshold = 50
)

// MarketDataSource is the slice of the exchange client the screener needs.
type MarketDataSource interface {
	QueryMarkets(ctx context.Context) (types.MarketMap, error)
	QueryKLines(ctx context.Context, symbol string, interval types.Interval, limit int) (types.KLineWindow, error)
	QueryTicker(ctx context.Context, symbol string) (*types.Ticker, error)
	QueryTickers(ctx context.Context, symbols ...string) (map[string]types.Ticker, error)
}

// Report is the outcome of screening one pair on one timeframe.
type Report struct {
	Symbol       string            `json:"symbol"`
	Timeframe    types.Interval    `json:"timeframe,omitempty"`
	TotalCandles int               `json:"total_candles,omitempty"`
	LastValues   []indicator.Value `json:"last_values,omitempty"`
	Current      *indicator.Value  `json:"current,omitempty"`
	Error        string            `json:"error,omitempty"`

	// Persisted tells whether the reading passed the validity gate and was
	// written to the database.
	Persisted bool `json:"-"`
}

// Screener fetches close windows from the exchange, runs the stochastic RSI
// pipeline and persists the readings.
type Screener struct {
	Source MarketDataSource

	SymbolService  *service.SymbolService
	ReadingService *service.ReadingService
	CandleService  *service.CandleService

	// Store keeps the volume snapshot across restarts. Optional.
	Store service.Store

	Config *config.Config

	// ShowProgress renders a progress bar during batch passes, meant for
	// interactive runs only.
	ShowProgress bool

	mu      sync.Mutex
	markets types.MarketMap
	volumes map[string]float64
}

func New(source MarketDataSource, db *sqlx.DB, store service.Store, cfg *config.Config) *Screener {
	return &Screener{
		Source:         source,
		SymbolService:  &service.SymbolService{DB: db},
		ReadingService: &service.ReadingService{DB: db},
		CandleService:  &service.CandleService{DB: db},
		Store:          store,
		Config:         cfg,
		volumes:        make(map[string]float64),
	}
}

// ListSymbols returns the actively trading symbols from the exchange,
// narrowed by the configured quote asset and capped at symbolLimit.
func (s *Screener) ListSymbols(ctx context.Context) ([]string, error) {
	markets, err := s.Source.QueryMarkets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can not query markets")
	}

	s.mu.Lock()
	s.markets = markets
	s.mu.Unlock()

	var symbols []string
	for _, symbol := range markets.TradingSymbols() {
		if quote := s.Config.Screener.QuoteAsset; quote != "" && markets[symbol].QuoteAsset != quote {
			continue
		}

		symbols = append(symbols, symbol)
	}

	if limit := s.Config.Screener.SymbolLimit; limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}

	metrics.ScreenerSymbolsTrackedMetrics.Set(float64(len(symbols)))
	log.Infof("%d trading symbols listed", len(symbols))
	return symbols, nil
}

// PrefetchVolumes fills the 24h quote volume of the given symbols, checking
// the persisted snapshot and the database before asking the exchange. With
// many symbols missing it falls back to one bulk ticker request.
func (s *Screener) PrefetchVolumes(ctx context.Context, symbols []string) error {
	s.loadVolumeSnapshot()

	stored, err := s.SymbolService.SymbolVolumes(ctx)
	if err != nil {
		return errors.Wrap(err, "can not load stored volumes")
	}

	var missing []string

	s.mu.Lock()
	for _, symbol := range symbols {
		if v, ok := stored[symbol]; ok && v > 0 {
			s.volumes[symbol] = v
		}

		if s.volumes[symbol] <= 0 {
			missing = append(missing, symbol)
		}
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		log.Infof("volume data already present for all %d symbols", len(symbols))
		return nil
	}

	log.Infof("fetching 24h volume of %d symbols...", len(missing))

	if len(missing) >= bulkTickerThreshold {
		err = s.fetchVolumesBulk(ctx, missing)
	} else {
		err = s.fetchVolumes(ctx, missing)
	}
	if err != nil {
		return err
	}

	s.saveVolumeSnapshot()
	return nil
}

func (s *Screener) fetchVolumes(ctx context.Context, symbols []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(volumeFetchWorkers)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			ticker, err := s.Source.QueryTicker(gctx, symbol)
			if err != nil {
				// symbols without a ticker simply keep volume 0
				log.WithError(err).Warnf("can not fetch 24h ticker of %s", symbol)
				return nil
			}

			if ticker.QuoteVolume > 0 {
				s.mu.Lock()
				s.volumes[symbol] = ticker.QuoteVolume
				s.mu.Unlock()
			}

			return nil
		})
	}

	return g.Wait()
}

func (s *Screener) fetchVolumesBulk(ctx context.Context, symbols []string) error {
	tickers, err := s.Source.QueryTickers(ctx, symbols...)
	if err != nil {
		return errors.Wrap(err, "can not query 24h tickers")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for symbol, ticker := range tickers {
		if ticker.QuoteVolume > 0 {
			s.volumes[symbol] = ticker.QuoteVolume
		}
	}

	return nil
}

func (s *Screener) loadVolumeSnapshot() {
	if s.Store == nil {
		return
	}

	var snapshot map[string]float64
	if err := s.Store.Load(&snapshot); err != nil {
		if !errors.Is(err, service.ErrPersistenceNotExists) {
			log.WithError(err).Warn("can not load the volume snapshot")
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for symbol, volume := range snapshot {
		if volume > 0 {
			s.volumes[symbol] = volume
		}
	}
}

func (s *Screener) saveVolumeSnapshot() {
	if s.Store == nil {
		return
	}

	s.mu.Lock()
	snapshot := make(map[string]float64, len(s.volumes))
	for symbol, volume := range s.volumes {
		snapshot[symbol] = volume
	}
	s.mu.Unlock()

	if err := s.Store.Save(snapshot); err != nil {
		log.WithError(err).Warn("can not save the volume snapshot")
	}
}

// Volume returns the cached 24h quote volume of the symbol, 0 when unknown.
func (s *Screener) Volume(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volumes[symbol]
}

func (s *Screener) market(symbol string) types.Market {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markets[symbol]
}

// ScreenSymbol fetches the close window of one pair, runs the indicator
// pipeline and persists latest reading, candles and history when the newest
// value carries both %K and %D. The returned report holds values rounded for
// display.
func (s *Screener) ScreenSymbol(ctx context.Context, symbol string, interval types.Interval) (*Report, error) {
	metrics.ScreenerSymbolsProcessedMetrics.WithLabelValues(string(interval)).Inc()

	cfg := s.Config.Screener

	window, err := s.Source.QueryKLines(ctx, symbol, interval, cfg.KLineLimit)
	if err != nil {
		metrics.ScreenerFetchErrorsMetrics.WithLabelValues(string(interval)).Inc()
		return nil, errors.Wrapf(err, "can not query klines of %s %s", symbol, interval)
	}

	if window.Len() == 0 {
		metrics.ScreenerFetchErrorsMetrics.WithLabelValues(string(interval)).Inc()
		return nil, errors.Errorf("empty kline response of %s %s", symbol, interval)
	}

	closes := window.Closes()
	values := indicator.Calculate(closes, cfg.StochRSI)

	var valid []indicator.Value
	for _, v := range values {
		if v.Valid() {
			valid = append(valid, v)
		}
	}

	if n := cfg.HistoryLength; len(valid) > n {
		valid = valid[len(valid)-n:]
	}

	report := &Report{
		Symbol:       symbol,
		Timeframe:    interval,
		TotalCandles: window.Len(),
	}

	for _, v := range valid {
		report.LastValues = append(report.LastValues, roundValue(v))
	}

	current := values[len(values)-1]
	rounded := roundValue(current)
	report.Current = &rounded

	if !current.Valid() {
		// not enough candles yet, nothing worth persisting
		return report, nil
	}

	market := s.market(symbol)

	symbolID, err := s.SymbolService.GetOrCreateSymbol(ctx, symbol, market.BaseAsset, market.QuoteAsset, s.Volume(symbol))
	if err != nil {
		return report, err
	}

	timeframeID, err := s.SymbolService.GetOrCreateTimeframe(ctx, string(interval))
	if err != nil {
		return report, err
	}

	if err := s.ReadingService.SaveLatest(ctx, symbolID, timeframeID, *current.K, *current.D, current.RSI); err != nil {
		return report, err
	}

	if err := s.CandleService.Replace(ctx, symbolID, timeframeID, closes, window.OpenTimes()); err != nil {
		return report, err
	}

	if err := s.ReadingService.SaveHistory(ctx, symbolID, timeframeID, valid); err != nil {
		return report, err
	}

	report.Persisted = true
	metrics.ScreenerReadingsPersistedMetrics.WithLabelValues(string(interval)).Inc()
	return report, nil
}

// ScreenAll runs one pass over the symbols sequentially, the exchange rate
// limiter paces the requests. A failing symbol is reported inline and does
// not stop the pass.
func (s *Screener) ScreenAll(ctx context.Context, symbols []string, interval types.Interval) ([]*Report, error) {
	iw := types.IntervalWindow{Interval: interval, Window: s.Config.Screener.KLineLimit}
	log.Infof("screening %d symbols on %s", len(symbols), iw)

	var bar *pb.ProgressBar
	if s.ShowProgress {
		bar = pb.Full.Start(len(symbols))
		defer bar.Finish()
	}

	var reports []*Report
	var errs error

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return reports, multierr.Append(errs, err)
		}

		report, err := s.ScreenSymbol(ctx, symbol, interval)
		if err != nil {
			log.WithError(err).Warnf("screening %s %s failed", symbol, interval)
			errs = multierr.Append(errs, err)
			report = &Report{Symbol: symbol, Error: err.Error()}
		}

		reports = append(reports, report)

		if bar != nil {
			bar.Increment()
		}
	}

	return reports, errs
}

func roundValue(v indicator.Value) indicator.Value {
	return indicator.Value{
		K:   roundPtr(v.K),
		D:   roundPtr(v.D),
		RSI: roundPtr(v.RSI),
	}
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}

	r := util.RoundTo(*v, 4)
	return &r
}
