package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// schemaStatements defines the sqlite schema. Every statement is idempotent so
// Upgrade can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS timeframes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT UNIQUE NOT NULL,
		base_asset TEXT,
		quote_asset TEXT,
		volume REAL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol_id INTEGER NOT NULL,
		timeframe_id INTEGER NOT NULL,
		close_price REAL NOT NULL,
		open_time INTEGER NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (symbol_id) REFERENCES symbols (id),
		FOREIGN KEY (timeframe_id) REFERENCES timeframes (id),
		UNIQUE (symbol_id, timeframe_id, open_time)
	)`,

	`CREATE TABLE IF NOT EXISTS stoch_rsi_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol_id INTEGER NOT NULL,
		timeframe_id INTEGER NOT NULL,
		k_value REAL,
		d_value REAL,
		rsi_value REAL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (symbol_id) REFERENCES symbols (id),
		FOREIGN KEY (timeframe_id) REFERENCES timeframes (id),
		UNIQUE (symbol_id, timeframe_id, timestamp)
	)`,

	`CREATE TABLE IF NOT EXISTS stoch_rsi_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol_id INTEGER NOT NULL,
		timeframe_id INTEGER NOT NULL,
		k_value REAL,
		d_value REAL,
		rsi_value REAL,
		sequence INTEGER,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (symbol_id) REFERENCES symbols (id),
		FOREIGN KEY (timeframe_id) REFERENCES timeframes (id),
		UNIQUE (symbol_id, timeframe_id, sequence)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_symbol_timeframe
		ON stoch_rsi_data (symbol_id, timeframe_id)`,

	`CREATE INDEX IF NOT EXISTS idx_history_symbol_timeframe
		ON stoch_rsi_history (symbol_id, timeframe_id)`,

	`CREATE INDEX IF NOT EXISTS idx_candles_symbol_timeframe
		ON candles (symbol_id, timeframe_id)`,
}

type DatabaseService struct {
	Driver string
	DSN    string
	DB     *sqlx.DB
}

func NewDatabaseService(driver, dsn string) *DatabaseService {
	return &DatabaseService{
		Driver: driver,
		DSN:    dsn,
	}
}

func (s *DatabaseService) Connect() error {
	if s.Driver == "sqlite3" && !isMemoryDSN(s.DSN) {
		if dir := filepath.Dir(sqliteFilePath(s.DSN)); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, "can not create database directory: %s", dir)
			}
		}
	}

	var err error
	s.DB, err = sqlx.Connect(s.Driver, s.DSN)
	if err != nil {
		return errors.Wrapf(err, "can not connect to database %s", s.Driver)
	}

	if s.Driver == "sqlite3" {
		// sqlite allows a single writer. One pooled connection serializes
		// queries instead of failing with SQLITE_BUSY, and keeps :memory:
		// databases on the same connection.
		s.DB.SetMaxOpenConns(1)

		_, _ = s.DB.Exec(`PRAGMA journal_mode = WAL`)
		_, _ = s.DB.Exec(`PRAGMA synchronous = NORMAL`)
	}

	return nil
}

func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

func (s *DatabaseService) Upgrade(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to upgrade database schema")
		}
	}

	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func sqliteFilePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}
