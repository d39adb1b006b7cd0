package utils

import (
	"context"
	"sync"
	"time"

	"gateway-stream/src/logger"
)

// MarketScheduler tracks the open/closed state of one exchange calendar and
// reports transitions.
type MarketScheduler struct {
	Calendar *TradingCalendar
	Logger   *logger.Logger

	mu    sync.Mutex
	known bool
	open  bool
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(cal *TradingCalendar, l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{Calendar: cal, Logger: l}
}

// -----------------------------------------------------------------------------

// Check returns the market state at now and whether it differs from the
// previous check. The first check always counts as a change.
func (ms *MarketScheduler) Check(now time.Time) (open bool, changed bool) {
	open = ms.Calendar.IsOpenOnMinute(now)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	changed = !ms.known || open != ms.open
	ms.known = true
	ms.open = open
	return open, changed
}

// -----------------------------------------------------------------------------

// Run checks every interval until ctx ends and calls onChange on each
// transition, starting with the current state.
func (ms *MarketScheduler) Run(ctx context.Context, interval time.Duration, onChange func(open bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if open, changed := ms.Check(time.Now()); changed {
			ms.Logger.Info("MarketScheduler: market is now %s", openLabel(open))
			onChange(open)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func openLabel(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}
