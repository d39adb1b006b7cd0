package storage

import (
	"database/sql"
	"fmt"
	"time"

	"gateway-stream/src/interfaces"
	"gateway-stream/src/logger"
	"gateway-stream/src/models"
)

// NewBarStore picks the backend named by cfg.Storage.DBType. The store is
// returned uninitialized.
func NewBarStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IBarStore, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(cfg, log)
	case "sqlite", "":
		return NewSQLiteDB(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}
}

// -----------------------------------------------------------------------------

func scanBars(rows *sql.Rows) ([]models.MBar, error) {
	defer rows.Close()

	var bars []models.MBar
	for rows.Next() {
		var b models.MBar
		var ts int64
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.WAP, &b.BarCount); err != nil {
			return nil, err
		}
		b.Date = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func scanSeries(rows *sql.Rows) ([]models.MBarSeries, error) {
	defer rows.Close()

	var out []models.MBarSeries
	for rows.Next() {
		var s models.MBarSeries
		var barSize, whatToShow string
		if err := rows.Scan(&s.Symbol, &barSize, &whatToShow); err != nil {
			return nil, err
		}
		s.BarSize = models.BarSize(barSize)
		s.WhatToShow = models.WhatToShow(whatToShow)
		out = append(out, s)
	}
	return out, rows.Err()
}
