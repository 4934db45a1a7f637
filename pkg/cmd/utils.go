package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/exchange/binance"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/screener"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
)

const defaultConfigFile = "config/stochrsi.yaml"

// loadConfig reads the file given by --config. Without the flag it falls
// back to the default path when that file exists, and to plain defaults
// otherwise.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if len(configFile) == 0 {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return config.Default(), nil
		}

		configFile = defaultConfigFile
	}

	return config.Load(configFile)
}

func newExchange(cfg *config.Config) (*binance.Exchange, error) {
	// the market data endpoints work unauthenticated, keys only raise the
	// request weight limits
	ex := binance.New(
		viper.GetString("binance-api-key"),
		viper.GetString("binance-api-secret"),
	)

	if timeout := cfg.Exchange.Timeout.Duration(); timeout > 0 {
		ex.SetTimeout(timeout)
	}

	if len(cfg.Exchange.RateLimit) > 0 {
		if err := ex.SetRateLimit(cfg.Exchange.RateLimit); err != nil {
			return nil, err
		}
	}

	return ex, nil
}

func newPersistenceFacade(cfg *config.Config) *service.PersistenceServiceFacade {
	facade := &service.PersistenceServiceFacade{
		Memory: service.NewMemoryService(),
	}

	if cfg.Persistence != nil {
		if cfg.Persistence.Redis != nil {
			facade.Redis = service.NewRedisPersistenceService(cfg.Persistence.Redis)
		}

		if cfg.Persistence.Json != nil {
			facade.Json = &service.JsonPersistenceService{Directory: cfg.Persistence.Json.Directory}
		}
	}

	return facade
}

func newScreener(cfg *config.Config, db *service.DatabaseService, facade *service.PersistenceServiceFacade) (*screener.Screener, error) {
	ex, err := newExchange(cfg)
	if err != nil {
		return nil, err
	}

	store := facade.Get().NewStore("stochrsi", "screener")
	return screener.New(ex, db.DB, store, cfg), nil
}
