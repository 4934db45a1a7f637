package metrics

import "github.com/prometheus/client_golang/prometheus"

var ScreenerCyclesTotalMetrics = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "stochrsi_screener_cycles_total",
		Help: "total number of completed screener update cycles",
	})

var ScreenerSymbolsProcessedMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stochrsi_screener_symbols_processed_total",
		Help: "number of symbol/timeframe screenings",
	}, []string{"timeframe"})

var ScreenerFetchErrorsMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stochrsi_screener_fetch_errors_total",
		Help: "number of failed symbol/timeframe screenings",
	}, []string{"timeframe"})

var ScreenerReadingsPersistedMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stochrsi_screener_readings_persisted_total",
		Help: "number of stochastic RSI readings written to the database",
	}, []string{"timeframe"})

var ScreenerLastCycleDurationMetrics = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "stochrsi_screener_last_cycle_duration_seconds",
		Help: "wall time of the last completed update cycle",
	})

var ScreenerSymbolsTrackedMetrics = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "stochrsi_screener_symbols_tracked",
		Help: "number of symbols the screener is tracking",
	})

var APICacheAgeMetrics = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "stochrsi_api_cache_age_seconds",
		Help: "age of the api server reading cache",
	})

func init() {
	prometheus.MustRegister(
		ScreenerCyclesTotalMetrics,
		ScreenerSymbolsProcessedMetrics,
		ScreenerFetchErrorsMetrics,
		ScreenerReadingsPersistedMetrics,
		ScreenerLastCycleDurationMetrics,
		ScreenerSymbolsTrackedMetrics,
		APICacheAgeMetrics,
	)
}
