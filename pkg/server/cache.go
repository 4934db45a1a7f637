package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/metrics"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
)

const (
	StatusOversold   = "oversold"
	StatusOverbought = "overbought"
	StatusNeutral    = "neutral"

	// StatusBoth is a filter-only value matching oversold or overbought.
	StatusBoth = "both"
)

// CacheEntry is one symbol and timeframe cell of the table. The cache serves
// display endpoints, so a missing raw RSI collapses to 0 here while the
// storage layer keeps it null.
type CacheEntry struct {
	K         float64   `json:"k"`
	D         float64   `json:"d"`
	RSI       float64   `json:"rsi"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type cacheSnapshot struct {
	Data      map[string]map[string]*CacheEntry `json:"data"`
	UpdatedAt time.Time                         `json:"updatedAt"`
}

// ReadingCache holds the latest reading of every symbol and timeframe in
// memory so table and filter requests never wait on the database.
type ReadingCache struct {
	symbolService  *service.SymbolService
	readingService *service.ReadingService

	timeframes []types.Interval
	oversold   float64
	overbought float64

	// store carries the snapshot across restarts. Optional.
	store service.Store

	mu        sync.RWMutex
	data      map[string]map[string]*CacheEntry
	updatedAt time.Time
}

func NewReadingCache(db *sqlx.DB, store service.Store, cfg *config.Config) *ReadingCache {
	return &ReadingCache{
		symbolService:  &service.SymbolService{DB: db},
		readingService: &service.ReadingService{DB: db},
		timeframes:     cfg.Screener.Timeframes,
		oversold:       cfg.API.Oversold,
		overbought:     cfg.API.Overbought,
		store:          store,
		data:           make(map[string]map[string]*CacheEntry),
	}
}

// Restore loads the snapshot of a previous run so the first requests after a
// restart are served warm.
func (c *ReadingCache) Restore() {
	if c.store == nil {
		return
	}

	var snapshot cacheSnapshot
	if err := c.store.Load(&snapshot); err != nil {
		if !errors.Is(err, service.ErrPersistenceNotExists) {
			log.WithError(err).Warn("can not restore the reading cache")
		}
		return
	}

	if snapshot.Data == nil {
		return
	}

	c.mu.Lock()
	c.data = snapshot.Data
	c.updatedAt = snapshot.UpdatedAt
	c.mu.Unlock()

	log.Infof("reading cache restored, %d symbols from %s",
		len(snapshot.Data), snapshot.UpdatedAt.Format(time.RFC3339))
}

// Refresh rebuilds the whole cache from the latest stored readings of the
// given symbols.
func (c *ReadingCache) Refresh(ctx context.Context, symbols []string) error {
	data := make(map[string]map[string]*CacheEntry, len(symbols))

	for _, symbol := range symbols {
		row, err := c.loadRow(ctx, symbol)
		if err != nil {
			return err
		}

		data[symbol] = row
	}

	c.mu.Lock()
	c.data = data
	c.updatedAt = time.Now()
	c.mu.Unlock()

	metrics.APICacheAgeMetrics.Set(0)
	c.saveSnapshot()

	log.Infof("reading cache refreshed, %d symbols", len(symbols))
	return nil
}

// RefreshSymbol updates a single symbol in place, leaving the rest of the
// cache untouched.
func (c *ReadingCache) RefreshSymbol(ctx context.Context, symbol string) error {
	row, err := c.loadRow(ctx, symbol)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.data[symbol] = row
	c.mu.Unlock()

	c.saveSnapshot()
	return nil
}

func (c *ReadingCache) loadRow(ctx context.Context, symbol string) (map[string]*CacheEntry, error) {
	row := make(map[string]*CacheEntry, len(c.timeframes))

	for _, interval := range c.timeframes {
		timeframe := string(interval)

		reading, err := c.readingService.Latest(ctx, symbol, timeframe)
		if err != nil {
			if errors.Is(err, service.ErrReadingNotFound) {
				row[timeframe] = nil
				continue
			}

			return nil, err
		}

		if reading.K == nil {
			row[timeframe] = nil
			continue
		}

		entry := &CacheEntry{
			K:         *reading.K,
			Timestamp: reading.Timestamp,
			Status:    c.status(*reading.K),
		}
		if reading.D != nil {
			entry.D = *reading.D
		}
		if reading.RSI != nil {
			entry.RSI = *reading.RSI
		}

		row[timeframe] = entry
	}

	return row, nil
}

// saveSnapshot copies the cache under the lock, row maps are never mutated
// after install so a shallow copy is enough.
func (c *ReadingCache) saveSnapshot() {
	if c.store == nil {
		return
	}

	c.mu.RLock()
	snapshot := cacheSnapshot{
		Data:      make(map[string]map[string]*CacheEntry, len(c.data)),
		UpdatedAt: c.updatedAt,
	}
	for symbol, row := range c.data {
		snapshot.Data[symbol] = row
	}
	c.mu.RUnlock()

	if err := c.store.Save(snapshot); err != nil {
		log.WithError(err).Warn("can not save the reading cache snapshot")
	}
}

func (c *ReadingCache) status(k float64) string {
	return StatusOf(k, c.oversold, c.overbought)
}

// StatusOf classifies a %K value against the given thresholds. Values on
// the thresholds themselves count as neutral.
func StatusOf(k, oversold, overbought float64) string {
	switch {
	case k < oversold:
		return StatusOversold
	case k > overbought:
		return StatusOverbought
	default:
		return StatusNeutral
	}
}

// Age is the time since the last full refresh.
func (c *ReadingCache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.updatedAt.IsZero() {
		return 0
	}

	age := time.Since(c.updatedAt)
	metrics.APICacheAgeMetrics.Set(age.Seconds())
	return age
}

// Stale reports whether the cache is older than maxAge, an empty cache is
// always stale.
func (c *ReadingCache) Stale(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.updatedAt.IsZero() || time.Since(c.updatedAt) > maxAge
}

func (c *ReadingCache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data) == 0
}

// Symbols returns the cached symbols in lexical order.
func (c *ReadingCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbols := make([]string, 0, len(c.data))
	for symbol := range c.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)
	return symbols
}

// Entry returns the cached cell of the symbol and timeframe, nil when the
// pair has no complete reading there.
func (c *ReadingCache) Entry(symbol, timeframe string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[symbol][timeframe]
}

// Row returns the cells of one symbol over every configured timeframe,
// missing ones included as explicit nulls.
func (c *ReadingCache) Row(symbol string) map[string]*CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row := make(map[string]*CacheEntry, len(c.timeframes))
	for _, interval := range c.timeframes {
		row[string(interval)] = c.data[symbol][string(interval)]
	}

	return row
}
