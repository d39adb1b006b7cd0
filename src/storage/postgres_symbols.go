package storage

import (
	"database/sql"
	"fmt"
	"time"

	"gateway-stream/src/models"
)

// Series catalog specific to Postgres: one row per stored series with the
// covered date range, kept in step with the bars table.

func (d *PostgresDB) createSeriesTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT,
			bar_size TEXT,
			what_to_show TEXT,
			first_timestamp BIGINT,
			last_timestamp BIGINT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (symbol, bar_size, what_to_show)
		);
	`, d.table("series"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create series: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// registerSeries widens the catalog range of series to cover [first, last].
func (d *PostgresDB) registerSeries(tx *sql.Tx, series models.MBarSeries, first, last time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (symbol, bar_size, what_to_show, first_timestamp, last_timestamp, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, bar_size, what_to_show) DO UPDATE SET
			first_timestamp = LEAST(%[1]s.first_timestamp, EXCLUDED.first_timestamp),
			last_timestamp = GREATEST(%[1]s.last_timestamp, EXCLUDED.last_timestamp),
			updated_at = EXCLUDED.updated_at
	`, d.table("series"))

	_, err := tx.Exec(query, series.Symbol, string(series.BarSize), string(series.WhatToShow),
		first.Unix(), last.Unix(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register series %s: %w", series, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Series lists the catalog.
func (d *PostgresDB) Series() ([]models.MBarSeries, error) {
	rows, err := d.DB.Query(fmt.Sprintf(
		`SELECT symbol, bar_size, what_to_show FROM %s ORDER BY symbol, bar_size, what_to_show`, d.table("series")))
	if err != nil {
		return nil, err
	}
	return scanSeries(rows)
}
