package server

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

type tableRow struct {
	Symbol     string                 `json:"symbol"`
	Timeframes map[string]*CacheEntry `json:"timeframes"`
	Matching   []string               `json:"matching,omitempty"`
}

type tableResponse struct {
	Timeframes []types.Interval `json:"timeframes"`
	Rows       []tableRow       `json:"rows"`
	Timestamp  time.Time        `json:"timestamp"`
	CacheAge   float64          `json:"cache_age"`
}

type filterResponse struct {
	Timeframes []types.Interval `json:"timeframes"`
	Rows       []tableRow       `json:"rows"`
	Count      int              `json:"count"`
	Filters    filterParams     `json:"filters"`
	Timestamp  time.Time        `json:"timestamp"`
}

type filterParams struct {
	Status     string   `json:"status"`
	Timeframes []string `json:"timeframes"`
	Match      string   `json:"match"`
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"cache_age": util.RoundTo(s.Cache.Age().Seconds(), 1),
	})
}

func (s *Server) listSymbols(c *gin.Context) {
	symbols, err := s.SymbolService.Symbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

func (s *Server) listTimeframes(c *gin.Context) {
	timeframes := types.IntervalSlice(s.Config.Screener.Timeframes).StringSlice()
	c.JSON(http.StatusOK, gin.H{
		"timeframes": timeframes,
		"count":      len(timeframes),
	})
}

func (s *Server) table(c *gin.Context) {
	ctx := c.Request.Context()

	if s.Cache.Empty() {
		c.JSON(http.StatusOK, gin.H{
			"error":      "cache is empty, run the screen or update command first",
			"timeframes": s.Config.Screener.Timeframes,
			"rows":       []tableRow{},
		})
		return
	}

	symbols, err := s.tableSymbols(ctx, c.Query("symbols"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.Cache.Stale(s.Config.API.CacheRefreshInterval.Duration()) {
		if err := s.refreshAll(ctx); err != nil {
			log.WithError(err).Error("table cache refresh failed")
		}
	}

	rows := make([]tableRow, 0, len(symbols))
	for _, symbol := range symbols {
		rows = append(rows, tableRow{
			Symbol:     symbol,
			Timeframes: s.Cache.Row(symbol),
		})
	}

	c.JSON(http.StatusOK, tableResponse{
		Timeframes: s.Config.Screener.Timeframes,
		Rows:       rows,
		Timestamp:  time.Now().UTC(),
		CacheAge:   util.RoundTo(s.Cache.Age().Seconds(), 1),
	})
}

// tableSymbols resolves the requested symbol list, both branches ordered by
// 24h volume descending.
func (s *Server) tableSymbols(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return s.SymbolService.SymbolsByVolume(ctx)
	}

	symbols := splitList(query)

	volumes, err := s.SymbolService.SymbolVolumes(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		return volumes[symbols[i]] > volumes[symbols[j]]
	})

	return symbols, nil
}

func (s *Server) filter(c *gin.Context) {
	status := c.DefaultQuery("status", StatusOversold)
	match := c.DefaultQuery("match", "all")

	selected := splitList(c.DefaultQuery("timeframes", "1h,4h"))
	if len(selected) == 0 {
		for _, interval := range s.Config.Screener.Timeframes {
			selected = append(selected, string(interval))
		}
	}

	rows := []tableRow{}
	for _, symbol := range s.Cache.Symbols() {
		var matching []string

		for _, timeframe := range selected {
			entry := s.Cache.Entry(symbol, timeframe)
			if entry == nil {
				continue
			}

			if status == StatusBoth {
				if entry.Status == StatusOversold || entry.Status == StatusOverbought {
					matching = append(matching, timeframe)
				}
			} else if entry.Status == status {
				matching = append(matching, timeframe)
			}
		}

		// the symbol must match on every selected timeframe
		if len(matching) != len(selected) {
			continue
		}

		rows = append(rows, tableRow{
			Symbol:     symbol,
			Timeframes: s.Cache.Row(symbol),
			Matching:   matching,
		})
	}

	volumes, err := s.SymbolService.SymbolVolumes(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("volume query failed, rows left unsorted")
		volumes = map[string]float64{}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return volumes[rows[i].Symbol] > volumes[rows[j].Symbol]
	})

	c.JSON(http.StatusOK, filterResponse{
		Timeframes: s.Config.Screener.Timeframes,
		Rows:       rows,
		Count:      len(rows),
		Filters: filterParams{
			Status:     status,
			Timeframes: selected,
			Match:      match,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) refresh(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.refreshAll(ctx); err != nil {
			log.WithError(err).Error("manual cache refresh failed")
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "refresh started"})
}

func (s *Server) calculate(c *gin.Context) {
	payload := struct {
		Symbol    string `json:"symbol"`
		Timeframe string `json:"timeframe"`
	}{}

	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing arguments"})
		return
	}

	if payload.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	interval := types.Interval1d
	if payload.Timeframe != "" {
		parsed, err := types.ParseInterval(payload.Timeframe)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		interval = parsed
	}

	symbol := strings.ToUpper(payload.Symbol)
	jobID := uuid.New().String()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		logger := log.WithField("job", jobID)

		report, err := s.Screener.ScreenSymbol(ctx, symbol, interval)
		if err != nil {
			logger.WithError(err).Errorf("calculation of %s %s failed", symbol, interval)
			return
		}

		logger.Infof("calculation of %s %s done, persisted: %v", symbol, interval, report.Persisted)

		if err := s.Cache.RefreshSymbol(ctx, symbol); err != nil {
			logger.WithError(err).Error("cache update failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "calculation started",
		"symbol": symbol,
		"job":    jobID,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
