package cmdutil

import (
	"context"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/config"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
)

// ConnectDatabase opens the configured database and applies the schema.
func ConnectDatabase(ctx context.Context, cfg *config.Config) (*service.DatabaseService, error) {
	db := service.NewDatabaseService(cfg.Database.Driver, cfg.Database.DSN)
	if err := db.Connect(); err != nil {
		return nil, err
	}

	if err := db.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
