package interfaces

import (
	"time"

	"gateway-stream/src/models"
)

// -----------------------------------------------------------------------------
// IBarStore defines the contract for persisting historical bars.
// -----------------------------------------------------------------------------

type IBarStore interface {

	// Initialize opens the database and creates missing tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveBars upserts bars of series keyed by bar date.
	SaveBars(series models.MBarSeries, bars []models.MBar) error

	// -----------------------------------------------------------------------------

	// LoadBars returns the bars of series dated in [from, to), oldest first.
	LoadBars(series models.MBarSeries, from, to time.Time) ([]models.MBar, error)

	// -----------------------------------------------------------------------------

	// Series lists every stored series.
	Series() ([]models.MBarSeries, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes bars older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
