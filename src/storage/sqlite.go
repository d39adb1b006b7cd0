package storage

import (
	"database/sql"
	"fmt"
	"time"

	"gateway-stream/src/logger"
	"gateway-stream/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	if cfg.Storage.DBPath == "" {
		return nil, fmt.Errorf("sqlite store needs a database path")
	}
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// volume and wap are decimals kept as TEXT
	query := `
		CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT,
			bar_size TEXT,
			what_to_show TEXT,
			timestamp INTEGER,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume TEXT,
			wap TEXT,
			bar_count INTEGER,
			PRIMARY KEY (symbol, bar_size, what_to_show, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create bars: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveBars(series models.MBarSeries, bars []models.MBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bars (symbol, bar_size, what_to_show, timestamp, open, high, low, close, volume, wap, bar_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, bar_size, what_to_show, timestamp) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			wap = excluded.wap,
			bar_count = excluded.bar_count
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(series.Symbol, string(series.BarSize), string(series.WhatToShow), b.Date.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume.String(), b.WAP.String(), b.BarCount)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) LoadBars(series models.MBarSeries, from, to time.Time) ([]models.MBar, error) {
	rows, err := d.DB.Query(`
		SELECT timestamp, open, high, low, close, volume, wap, bar_count FROM bars
		WHERE symbol = ? AND bar_size = ? AND what_to_show = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, series.Symbol, string(series.BarSize), string(series.WhatToShow), from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	return scanBars(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Series() ([]models.MBarSeries, error) {
	rows, err := d.DB.Query(`SELECT DISTINCT symbol, bar_size, what_to_show FROM bars ORDER BY symbol, bar_size, what_to_show`)
	if err != nil {
		return nil, err
	}
	return scanSeries(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up bars older than %d days (timestamp < %d)...", retentionDays, cutoff)

	res, err := d.DB.Exec("DELETE FROM bars WHERE timestamp < ?", cutoff)
	if err != nil {
		d.Logger.Error("Cleanup bars error: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		d.Logger.Info("Cleanup completed, %d bars removed", n)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
