package service

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/indicator"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

var ErrReadingNotFound = errors.New("reading not found")

// Reading is the latest stochastic RSI reading of a symbol/timeframe pair.
// nil means the value was not computable, which is different from 0.
type Reading struct {
	K         *float64  `db:"k_value" json:"k"`
	D         *float64  `db:"d_value" json:"d"`
	RSI       *float64  `db:"rsi_value" json:"rsi"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

type HistoryReading struct {
	Sequence int64    `db:"sequence" json:"sequence"`
	K        *float64 `db:"k_value" json:"k"`
	D        *float64 `db:"d_value" json:"d"`
	RSI      *float64 `db:"rsi_value" json:"rsi"`
}

type ReadingStats struct {
	KAvg         *float64 `db:"k_avg" json:"k_avg"`
	KMin         *float64 `db:"k_min" json:"k_min"`
	KMax         *float64 `db:"k_max" json:"k_max"`
	DAvg         *float64 `db:"d_avg" json:"d_avg"`
	DMin         *float64 `db:"d_min" json:"d_min"`
	DMax         *float64 `db:"d_max" json:"d_max"`
	RSIAvg       *float64 `db:"rsi_avg" json:"rsi_avg"`
	RSIMin       *float64 `db:"rsi_min" json:"rsi_min"`
	RSIMax       *float64 `db:"rsi_max" json:"rsi_max"`
	TotalRecords int64    `db:"total_records" json:"total_records"`
}

type ReadingService struct {
	DB *sqlx.DB
}

// SaveLatest upserts the newest reading. Rows are keyed by (symbol, timeframe,
// timestamp), so successive cycles accumulate history for Statistics while
// saves within the same second collapse into one row.
func (s *ReadingService) SaveLatest(
	ctx context.Context, symbolID, timeframeID int64, k, d float64, rsi *float64,
) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO stoch_rsi_data (symbol_id, timeframe_id, k_value, d_value, rsi_value, timestamp)
		VALUES (:symbol_id, :timeframe_id, :k_value, :d_value, :rsi_value, :timestamp)
		ON CONFLICT(symbol_id, timeframe_id, timestamp) DO UPDATE SET
			k_value = excluded.k_value,
			d_value = excluded.d_value,
			rsi_value = excluded.rsi_value`,
		map[string]interface{}{
			"symbol_id":    symbolID,
			"timeframe_id": timeframeID,
			"k_value":      k,
			"d_value":      d,
			"rsi_value":    rsi,
			"timestamp":    time.Now().UTC().Truncate(time.Second),
		})

	return errors.Wrap(err, "can not save reading")
}

// SaveHistory replaces the stored recent readings with the given values.
// Values without both %K and %D are skipped. A nil RSI is stored as 0, the
// history table keeps displayable rows only.
func (s *ReadingService) SaveHistory(
	ctx context.Context, symbolID, timeframeID int64, values []indicator.Value,
) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "can not begin history transaction")
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stoch_rsi_history WHERE symbol_id = ? AND timeframe_id = ?`,
		symbolID, timeframeID); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "can not clear history")
	}

	sequence := int64(0)
	for _, v := range values {
		if !v.Valid() {
			continue
		}

		sequence++
		rsi := 0.0
		if v.RSI != nil {
			rsi = *v.RSI
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stoch_rsi_history (symbol_id, timeframe_id, k_value, d_value, rsi_value, sequence)
			VALUES (?, ?, ?, ?, ?, ?)`,
			symbolID, timeframeID, *v.K, *v.D, rsi, sequence); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "can not insert history row %d", sequence)
		}
	}

	return errors.Wrap(tx.Commit(), "can not commit history")
}

// Latest resolves the pair by name and returns the most recent reading,
// rounded to 4 decimals. Returns ErrReadingNotFound when the pair has no data.
func (s *ReadingService) Latest(ctx context.Context, symbol, timeframe string) (*Reading, error) {
	sel := sq.Select("d.k_value", "d.d_value", "d.rsi_value", "d.timestamp").
		From("stoch_rsi_data d").
		Join("symbols s ON d.symbol_id = s.id").
		Join("timeframes t ON d.timeframe_id = t.id").
		Where(sq.Eq{"s.symbol": symbol, "t.name": timeframe}).
		OrderBy("d.timestamp DESC").
		Limit(1)

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	if rows.Next() {
		var reading Reading
		if err := rows.StructScan(&reading); err != nil {
			return nil, err
		}

		reading.K = round4(reading.K)
		reading.D = round4(reading.D)
		reading.RSI = round4(reading.RSI)
		return &reading, rows.Err()
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, errors.Wrapf(ErrReadingNotFound, "%s %s", symbol, timeframe)
}

// History returns the stored recent readings ordered by sequence.
func (s *ReadingService) History(ctx context.Context, symbol, timeframe string) ([]HistoryReading, error) {
	sel := sq.Select("h.sequence", "h.k_value", "h.d_value", "h.rsi_value").
		From("stoch_rsi_history h").
		Join("symbols s ON h.symbol_id = s.id").
		Join("timeframes t ON h.timeframe_id = t.id").
		Where(sq.Eq{"s.symbol": symbol, "t.name": timeframe}).
		OrderBy("h.sequence")

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var readings []HistoryReading
	for rows.Next() {
		var reading HistoryReading
		if err := rows.StructScan(&reading); err != nil {
			return readings, err
		}

		reading.K = round4(reading.K)
		reading.D = round4(reading.D)
		reading.RSI = round4(reading.RSI)
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

// Statistics aggregates all accumulated readings of the pair.
func (s *ReadingService) Statistics(ctx context.Context, symbol, timeframe string) (*ReadingStats, error) {
	rows, err := s.DB.NamedQueryContext(ctx, `
		SELECT
			AVG(d.k_value) AS k_avg, MIN(d.k_value) AS k_min, MAX(d.k_value) AS k_max,
			AVG(d.d_value) AS d_avg, MIN(d.d_value) AS d_min, MAX(d.d_value) AS d_max,
			AVG(d.rsi_value) AS rsi_avg, MIN(d.rsi_value) AS rsi_min, MAX(d.rsi_value) AS rsi_max,
			COUNT(*) AS total_records
		FROM stoch_rsi_data d
		JOIN symbols s ON d.symbol_id = s.id
		JOIN timeframes t ON d.timeframe_id = t.id
		WHERE s.symbol = :symbol AND t.name = :timeframe`,
		map[string]interface{}{
			"symbol":    symbol,
			"timeframe": timeframe,
		})
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var stats ReadingStats
	if err := rows.StructScan(&stats); err != nil {
		return nil, err
	}

	stats.KAvg = round4(stats.KAvg)
	stats.KMin = round4(stats.KMin)
	stats.KMax = round4(stats.KMax)
	stats.DAvg = round4(stats.DAvg)
	stats.DMin = round4(stats.DMin)
	stats.DMax = round4(stats.DMax)
	stats.RSIAvg = round4(stats.RSIAvg)
	stats.RSIMin = round4(stats.RSIMin)
	stats.RSIMax = round4(stats.RSIMax)

	return &stats, rows.Err()
}

// ExportReading is one exported row of the accumulated readings.
type ExportReading struct {
	K         *float64  `json:"k"`
	D         *float64  `json:"d"`
	RSI       *float64  `json:"rsi"`
	Timestamp time.Time `json:"timestamp"`
}

// Export returns every accumulated reading grouped by symbol and timeframe.
func (s *ReadingService) Export(ctx context.Context) (map[string]map[string][]ExportReading, error) {
	sel := sq.Select("s.symbol", "t.name AS timeframe", "d.k_value", "d.d_value", "d.rsi_value", "d.timestamp").
		From("stoch_rsi_data d").
		Join("symbols s ON d.symbol_id = s.id").
		Join("timeframes t ON d.timeframe_id = t.id").
		OrderBy("s.symbol", "t.name")

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	data := make(map[string]map[string][]ExportReading)
	for rows.Next() {
		var symbol, timeframe string
		var reading ExportReading
		if err := rows.Scan(&symbol, &timeframe, &reading.K, &reading.D, &reading.RSI, &reading.Timestamp); err != nil {
			return data, err
		}

		reading.K = round4(reading.K)
		reading.D = round4(reading.D)
		reading.RSI = round4(reading.RSI)

		if _, ok := data[symbol]; !ok {
			data[symbol] = make(map[string][]ExportReading)
		}

		data[symbol][timeframe] = append(data[symbol][timeframe], reading)
	}

	return data, rows.Err()
}

func round4(v *float64) *float64 {
	if v == nil {
		return nil
	}

	r := util.RoundTo(*v, 4)
	return &r
}
