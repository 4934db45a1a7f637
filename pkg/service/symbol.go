package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type SymbolService struct {
	DB *sqlx.DB
}

// GetOrCreateSymbol returns the row id of the symbol, inserting it when missing.
// The stored 24h volume is only ever raised, so a later caller without volume
// data does not wipe a previously fetched value.
func (s *SymbolService) GetOrCreateSymbol(
	ctx context.Context, symbol, baseAsset, quoteAsset string, volume float64,
) (int64, error) {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO symbols (symbol, base_asset, quote_asset, volume)
		VALUES (:symbol, :base_asset, :quote_asset, :volume)
		ON CONFLICT(symbol) DO UPDATE SET volume = MAX(COALESCE(symbols.volume, 0), excluded.volume)`,
		map[string]interface{}{
			"symbol":      symbol,
			"base_asset":  baseAsset,
			"quote_asset": quoteAsset,
			"volume":      volume,
		})
	if err != nil {
		return 0, errors.Wrapf(err, "can not upsert symbol %s", symbol)
	}

	var id int64
	if err := s.DB.GetContext(ctx, &id, `SELECT id FROM symbols WHERE symbol = ?`, symbol); err != nil {
		return 0, errors.Wrapf(err, "can not load symbol id of %s", symbol)
	}

	return id, nil
}

func (s *SymbolService) GetOrCreateTimeframe(ctx context.Context, timeframe string) (int64, error) {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO timeframes (name) VALUES (:name)
		ON CONFLICT(name) DO NOTHING`,
		map[string]interface{}{
			"name": timeframe,
		})
	if err != nil {
		return 0, errors.Wrapf(err, "can not upsert timeframe %s", timeframe)
	}

	var id int64
	if err := s.DB.GetContext(ctx, &id, `SELECT id FROM timeframes WHERE name = ?`, timeframe); err != nil {
		return 0, errors.Wrapf(err, "can not load timeframe id of %s", timeframe)
	}

	return id, nil
}

// Symbols returns all stored symbol names in alphabetical order.
func (s *SymbolService) Symbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.DB.SelectContext(ctx, &symbols, `SELECT symbol FROM symbols ORDER BY symbol`)
	return symbols, err
}

// SymbolsByVolume returns symbols ordered by 24h volume descending.
// Symbols without volume data are appended alphabetically.
func (s *SymbolService) SymbolsByVolume(ctx context.Context) ([]string, error) {
	var withVolume []string
	err := s.DB.SelectContext(ctx, &withVolume, `SELECT symbol FROM symbols WHERE volume > 0 ORDER BY volume DESC`)
	if err != nil {
		return nil, err
	}

	var withoutVolume []string
	err = s.DB.SelectContext(ctx, &withoutVolume, `SELECT symbol FROM symbols WHERE volume = 0 OR volume IS NULL ORDER BY symbol`)
	if err != nil {
		return nil, err
	}

	return append(withVolume, withoutVolume...), nil
}

func (s *SymbolService) SymbolVolume(ctx context.Context, symbol string) (float64, error) {
	var volume float64
	err := s.DB.GetContext(ctx, &volume, `SELECT COALESCE(volume, 0) FROM symbols WHERE symbol = ?`, symbol)
	if err == sql.ErrNoRows {
		return 0, nil
	}

	return volume, err
}

// SymbolVolumes returns the stored 24h volume of every symbol at once.
func (s *SymbolService) SymbolVolumes(ctx context.Context) (map[string]float64, error) {
	rows, err := s.DB.QueryxContext(ctx, `SELECT symbol, COALESCE(volume, 0) AS volume FROM symbols`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	volumes := make(map[string]float64)
	for rows.Next() {
		var symbol string
		var volume float64
		if err := rows.Scan(&symbol, &volume); err != nil {
			return volumes, err
		}

		volumes[symbol] = volume
	}

	return volumes, rows.Err()
}

// Timeframes returns all stored timeframe names in alphabetical order.
func (s *SymbolService) Timeframes(ctx context.Context) ([]string, error) {
	var timeframes []string
	err := s.DB.SelectContext(ctx, &timeframes, `SELECT name FROM timeframes ORDER BY name`)
	return timeframes, err
}
