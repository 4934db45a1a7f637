package service

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/datatype/floats"
)

type CandleService struct {
	DB *sqlx.DB
}

// Replace swaps the stored close prices of the pair with the given series in
// one transaction, so a concurrent reader never sees a half written window.
// When openTimes is missing entries the row index is used as open_time,
// keeping rows unique within the window.
func (s *CandleService) Replace(
	ctx context.Context, symbolID, timeframeID int64, closes floats.Slice, openTimes []time.Time,
) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "can not begin candle transaction")
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM candles WHERE symbol_id = ? AND timeframe_id = ?`,
		symbolID, timeframeID); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "can not clear candles")
	}

	for i, price := range closes {
		openTime := int64(i)
		if i < len(openTimes) {
			openTime = openTimes[i].UnixMilli()
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candles (symbol_id, timeframe_id, close_price, open_time)
			VALUES (?, ?, ?, ?)`,
			symbolID, timeframeID, price, openTime); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "can not insert candle %d", i)
		}
	}

	return errors.Wrap(tx.Commit(), "can not commit candles")
}

// Closes returns the stored close prices of the pair ordered by open time.
func (s *CandleService) Closes(ctx context.Context, symbol, timeframe string) (floats.Slice, error) {
	sel := sq.Select("c.close_price").
		From("candles c").
		Join("symbols s ON c.symbol_id = s.id").
		Join("timeframes t ON c.timeframe_id = t.id").
		Where(sq.Eq{"s.symbol": symbol, "t.name": timeframe}).
		OrderBy("c.open_time")

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	var closes floats.Slice
	if err := s.DB.SelectContext(ctx, &closes, sql, args...); err != nil {
		return nil, err
	}

	return closes, nil
}
