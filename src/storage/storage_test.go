package storage

import (
	"path/filepath"
	"testing"
	"time"

	"gateway-stream/src/logger"
	"gateway-stream/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msftDaily = models.MBarSeries{Symbol: "MSFT", BarSize: models.BarSizeDay, WhatToShow: models.WhatToShowTrades}

func newTestStore(t *testing.T) *SQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBType:        "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "bars.db"),
		RetentionDays: 30,
	}}
	store, err := NewBarStore(cfg, logger.NewNopLogger("storage"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store.(*SQLiteDB)
}

func bar(day time.Time, close float64, volume string) models.MBar {
	return models.MBar{
		Date: day, Open: close - 1, High: close + 1, Low: close - 2, Close: close,
		Volume: decimal.RequireFromString(volume), WAP: decimal.NewFromFloat(close), BarCount: 10,
	}
}

func TestSQLiteSaveAndLoadBars(t *testing.T) {
	store := newTestStore(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	bars := []models.MBar{
		bar(today.AddDate(0, 0, -2), 100, "1500"),
		bar(today.AddDate(0, 0, -1), 101, "1600.5"),
	}
	require.NoError(t, store.SaveBars(msftDaily, bars))

	// re-saving a date replaces it
	require.NoError(t, store.SaveBars(msftDaily, []models.MBar{bar(today.AddDate(0, 0, -1), 102, "1700")}))

	loaded, err := store.LoadBars(msftDaily, today.AddDate(0, 0, -7), today)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, bars[0].Date, loaded[0].Date)
	assert.Equal(t, 102.0, loaded[1].Close)
	assert.True(t, loaded[1].Volume.Equal(decimal.NewFromInt(1700)))
	assert.Equal(t, int32(10), loaded[1].BarCount)

	other := msftDaily
	other.BarSize = models.BarSizeHour
	none, err := store.LoadBars(other, today.AddDate(0, 0, -7), today)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteSeries(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	aapl := models.MBarSeries{Symbol: "AAPL", BarSize: models.BarSizeMin5, WhatToShow: models.WhatToShowMidPoint}
	require.NoError(t, store.SaveBars(msftDaily, []models.MBar{bar(now, 1, "1")}))
	require.NoError(t, store.SaveBars(aapl, []models.MBar{bar(now, 1, "1")}))
	require.NoError(t, store.SaveBars(aapl, nil))

	series, err := store.Series()
	require.NoError(t, err)
	assert.Equal(t, []models.MBarSeries{aapl, msftDaily}, series)
}

func TestSQLiteCleanupOldData(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveBars(msftDaily, []models.MBar{
		bar(now.AddDate(0, 0, -90), 50, "1"),
		bar(now.AddDate(0, 0, -1), 60, "1"),
	}))
	require.NoError(t, store.CleanupOldData())

	loaded, err := store.LoadBars(msftDaily, now.AddDate(-1, 0, 0), now)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 60.0, loaded[0].Close)
}

func TestNewBarStoreRejectsUnknownType(t *testing.T) {
	_, err := NewBarStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "mongo"}}, logger.NewNopLogger("storage"))
	assert.Error(t, err)

	_, err = NewBarStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "postgres"}}, logger.NewNopLogger("storage"))
	assert.Error(t, err, "postgres needs a connection string")
}
