package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gateway-stream/src/logger"
	"gateway-stream/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB stores bars in a schema named after the running executable.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, fmt.Errorf("postgres store needs a connection string")
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT,
			bar_size TEXT,
			what_to_show TEXT,
			timestamp BIGINT,
			open DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			close DOUBLE PRECISION,
			volume NUMERIC,
			wap NUMERIC,
			bar_count INTEGER,
			PRIMARY KEY (symbol, bar_size, what_to_show, timestamp)
		);
	`, d.table("bars"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create bars: %w", err)
	}

	return d.createSeriesTable()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveBars(series models.MBarSeries, bars []models.MBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (symbol, bar_size, what_to_show, timestamp, open, high, low, close, volume, wap, bar_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, bar_size, what_to_show, timestamp) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			wap = EXCLUDED.wap,
			bar_count = EXCLUDED.bar_count
	`, d.table("bars"))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	first, last := bars[0].Date, bars[0].Date
	for _, b := range bars {
		_, err := stmt.Exec(series.Symbol, string(series.BarSize), string(series.WhatToShow), b.Date.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.WAP, b.BarCount)
		if err != nil {
			return err
		}
		if b.Date.Before(first) {
			first = b.Date
		}
		if b.Date.After(last) {
			last = b.Date
		}
	}

	if err := d.registerSeries(tx, series, first, last); err != nil {
		return err
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadBars(series models.MBarSeries, from, to time.Time) ([]models.MBar, error) {
	query := fmt.Sprintf(`
		SELECT timestamp, open, high, low, close, volume, wap, bar_count FROM %s
		WHERE symbol = $1 AND bar_size = $2 AND what_to_show = $3 AND timestamp >= $4 AND timestamp < $5
		ORDER BY timestamp
	`, d.table("bars"))
	rows, err := d.DB.Query(query, series.Symbol, string(series.BarSize), string(series.WhatToShow), from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	return scanBars(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up bars older than %d days (timestamp < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE timestamp < $1`, d.table("bars")), cutoff); err != nil {
		d.Logger.Error("Cleanup bars error: %v", err)
		return err
	}
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE last_timestamp < $1`, d.table("series")), cutoff); err != nil {
		d.Logger.Error("Cleanup series error: %v", err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
