package utils

import (
	"strings"
	"time"

	"gateway-stream/src/logger"

	"github.com/scmhub/calendar"
)

const defaultMIC = "xnys"

// TradingCalendar answers session questions for one exchange, used to pick
// end dates for historical requests.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar loads the calendar of an ISO 10383 MIC, falling back to NYSE
// and then to a plain Mon-Fri 09:30-16:00 New York week.
func GetCalendar(mic string, log *logger.Logger) *TradingCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = defaultMIC
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		log.Warning("No calendar for MIC '%s', using '%s'", mic, defaultMIC)
		cal = calendar.GetCalendar(defaultMIC)
	}

	if cal == nil {
		log.Warning("Failed to load calendar for MIC '%s'. Using simple fallback (Mon-Fri 09:30-16:00 New York).", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()

		// 9:30 - 16:00 local
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

// LastSessionClose returns the close of the latest session that ended at or
// before at. Early closes are found by scanning back from midnight.
func (tc *TradingCalendar) LastSessionClose(at time.Time) time.Time {
	loc := tc.Timezone
	if loc == nil {
		loc = time.UTC
	}
	at = at.In(loc)

	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
	// A year without a session means the calendar is unusable.
	for i := 0; i < 366; i++ {
		if tc.IsTradingDay(day) {
			if closeAt, ok := tc.sessionClose(day); ok && !closeAt.After(at) {
				return closeAt
			}
		}
		day = day.AddDate(0, 0, -1)
	}
	return at
}

// sessionClose finds the minute after the last open minute of day.
func (tc *TradingCalendar) sessionClose(day time.Time) (time.Time, bool) {
	for t := day.Add(24*time.Hour - time.Minute); !t.Before(day); t = t.Add(-time.Minute) {
		if tc.IsOpenOnMinute(t) {
			return t.Add(time.Minute), true
		}
	}
	return time.Time{}, false
}
