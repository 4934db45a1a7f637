package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/indicator"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/types"
)

// ScreenerConfig drives what gets scanned and how the readings are
// computed and kept.
type ScreenerConfig struct {
	Timeframes []types.Interval `json:"timeframes" yaml:"timeframes"`

	StochRSI indicator.Config `json:"stochRSI" yaml:"stochRSI"`

	// KLineLimit is the number of closed candles fetched per symbol and
	// timeframe. It must cover the indicator warm-up.
	KLineLimit int `json:"klineLimit" yaml:"klineLimit"`

	// HistoryLength is how many trailing complete readings are kept per
	// symbol and timeframe.
	HistoryLength int `json:"historyLength" yaml:"historyLength"`

	UpdateInterval types.Duration `json:"updateInterval" yaml:"updateInterval"`

	// SymbolLimit caps the number of scanned symbols, 0 scans all.
	SymbolLimit int `json:"symbolLimit" yaml:"symbolLimit"`

	// QuoteAsset narrows the scan to pairs quoted in this asset, empty
	// scans every trading pair.
	QuoteAsset string `json:"quoteAsset,omitempty" yaml:"quoteAsset,omitempty"`
}

type ExchangeConfig struct {
	Timeout types.Duration `json:"timeout" yaml:"timeout"`

	// RateLimit uses the "burst+tokens/interval" syntax, e.g. "2+20/1s"
	RateLimit string `json:"rateLimit" yaml:"rateLimit"`
}

type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type APIConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	CacheRefreshInterval types.Duration `json:"cacheRefreshInterval" yaml:"cacheRefreshInterval"`

	Oversold   float64 `json:"oversold" yaml:"oversold"`
	Overbought float64 `json:"overbought" yaml:"overbought"`

	// MetricsAddr serves prometheus metrics when set, empty disables it.
	MetricsAddr string `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`

	// AllowedOrigins accepts either a single origin string or a list.
	AllowedOrigins StringSlice `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

type PersistenceConfig struct {
	Redis *service.RedisPersistenceConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	Json  *service.JsonPersistenceConfig  `json:"json,omitempty" yaml:"json,omitempty"`
}

type Config struct {
	Screener ScreenerConfig `json:"screener" yaml:"screener"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	API      APIConfig      `json:"api" yaml:"api"`

	Persistence *PersistenceConfig `json:"persistence,omitempty" yaml:"persistence,omitempty"`
}

func Default() *Config {
	return &Config{
		Screener: ScreenerConfig{
			Timeframes:     []types.Interval{types.Interval15m, types.Interval1h, types.Interval4h, types.Interval1d},
			StochRSI:       indicator.DefaultConfig(),
			KLineLimit:     100,
			HistoryLength:  5,
			UpdateInterval: types.Duration(5 * time.Minute),
		},
		Exchange: ExchangeConfig{
			Timeout:   types.Duration(10 * time.Second),
			RateLimit: "2+10/1s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "data/stoch_rsi.db",
		},
		API: APIConfig{
			Addr:                 ":8000",
			CacheRefreshInterval: types.Duration(time.Minute),
			Oversold:             20.0,
			Overbought:           80.0,
		},
	}
}

// Load reads the YAML file over the defaults. Loading constructs data
// only, it performs no logging and touches nothing but the given file.
func Load(configFile string) (*Config, error) {
	config := Default()

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, errors.Wrapf(err, "can not parse config file %s", configFile)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if len(c.Screener.Timeframes) == 0 {
		return errors.New("screener.timeframes can not be empty")
	}

	for _, tf := range c.Screener.Timeframes {
		if _, err := types.ParseInterval(tf.String()); err != nil {
			return errors.Wrap(err, "screener.timeframes")
		}
	}

	if err := c.Screener.StochRSI.Validate(); err != nil {
		return errors.Wrap(err, "screener.stochRSI")
	}

	if c.Screener.KLineLimit < c.Screener.StochRSI.MinInputLength() {
		return errors.Errorf("screener.klineLimit %d is below the indicator minimum input %d",
			c.Screener.KLineLimit, c.Screener.StochRSI.MinInputLength())
	}

	if c.Screener.HistoryLength <= 0 {
		return errors.New("screener.historyLength must be positive")
	}

	if c.Screener.UpdateInterval.Duration() <= 0 {
		return errors.New("screener.updateInterval must be positive")
	}

	if c.Database.Driver != "sqlite3" {
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.API.Oversold >= c.API.Overbought {
		return errors.Errorf("api.oversold %f must stay below api.overbought %f",
			c.API.Oversold, c.API.Overbought)
	}

	return nil
}
