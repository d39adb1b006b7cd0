package models

import (
	"fmt"
	"strings"
)

// SecurityType is the instrument class sent as "secType".
type SecurityType string

const (
	SecurityTypeStock   SecurityType = "STK"
	SecurityTypeOption  SecurityType = "OPT"
	SecurityTypeFuture  SecurityType = "FUT"
	SecurityTypeIndex   SecurityType = "IND"
	SecurityTypeForex   SecurityType = "CASH"
	SecurityTypeBag     SecurityType = "BAG"
	SecurityTypeCrypto  SecurityType = "CRYPTO"
	SecurityTypeContFut SecurityType = "CONTFUT"
)

func (s SecurityType) ToField() string { return string(s) }

// Action is the side of a combo leg.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

func (a Action) ToField() string { return string(a) }

// -----------------------------------------------------------------------------
// BarSize
// -----------------------------------------------------------------------------

type BarSize string

const (
	BarSizeSec   BarSize = "1 secs"
	BarSizeSec5  BarSize = "5 secs"
	BarSizeSec15 BarSize = "15 secs"
	BarSizeSec30 BarSize = "30 secs"
	BarSizeMin   BarSize = "1 min"
	BarSizeMin2  BarSize = "2 mins"
	BarSizeMin3  BarSize = "3 mins"
	BarSizeMin5  BarSize = "5 mins"
	BarSizeMin15 BarSize = "15 mins"
	BarSizeMin20 BarSize = "20 mins"
	BarSizeMin30 BarSize = "30 mins"
	BarSizeHour  BarSize = "1 hour"
	BarSizeHour2 BarSize = "2 hours"
	BarSizeHour3 BarSize = "3 hours"
	BarSizeHour4 BarSize = "4 hours"
	BarSizeHour8 BarSize = "8 hours"
	BarSizeDay   BarSize = "1 day"
	BarSizeWeek  BarSize = "1 week"
	BarSizeMonth BarSize = "1 month"
)

var barSizes = []BarSize{
	BarSizeSec, BarSizeSec5, BarSizeSec15, BarSizeSec30,
	BarSizeMin, BarSizeMin2, BarSizeMin3, BarSizeMin5, BarSizeMin15, BarSizeMin20, BarSizeMin30,
	BarSizeHour, BarSizeHour2, BarSizeHour3, BarSizeHour4, BarSizeHour8,
	BarSizeDay, BarSizeWeek, BarSizeMonth,
}

func (b BarSize) ToField() string { return string(b) }

// ParseBarSize accepts the wire form ("5 mins") or a compact form ("5m", "1d").
func ParseBarSize(s string) (BarSize, error) {
	s = strings.TrimSpace(s)
	for _, b := range barSizes {
		if string(b) == s {
			return b, nil
		}
	}
	compact := map[string]BarSize{
		"1s": BarSizeSec, "5s": BarSizeSec5, "15s": BarSizeSec15, "30s": BarSizeSec30,
		"1m": BarSizeMin, "2m": BarSizeMin2, "3m": BarSizeMin3, "5m": BarSizeMin5,
		"15m": BarSizeMin15, "20m": BarSizeMin20, "30m": BarSizeMin30,
		"1h": BarSizeHour, "2h": BarSizeHour2, "3h": BarSizeHour3, "4h": BarSizeHour4, "8h": BarSizeHour8,
		"1d": BarSizeDay, "1w": BarSizeWeek, "1mo": BarSizeMonth,
	}
	if b, ok := compact[strings.ToLower(s)]; ok {
		return b, nil
	}
	return "", fmt.Errorf("unknown bar size %q", s)
}

// -----------------------------------------------------------------------------
// Duration
// -----------------------------------------------------------------------------

// Duration is a history window such as "3 D" or "1 Y".
type Duration struct {
	Value int32
	Unit  DurationUnit
}

type DurationUnit string

const (
	Seconds DurationUnit = "S"
	Days    DurationUnit = "D"
	Weeks   DurationUnit = "W"
	Months  DurationUnit = "M"
	Years   DurationUnit = "Y"
)

func (d Duration) ToField() string {
	return fmt.Sprintf("%d %s", d.Value, d.Unit)
}

func (d Duration) String() string { return d.ToField() }

// ParseDuration accepts "3 D" or "3D".
func ParseDuration(s string) (Duration, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if len(s) < 2 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	unit := DurationUnit(s[len(s)-1:])
	switch unit {
	case Seconds, Days, Weeks, Months, Years:
	default:
		return Duration{}, fmt.Errorf("invalid duration unit in %q", s)
	}
	var v int32
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &v); err != nil || v <= 0 {
		return Duration{}, fmt.Errorf("invalid duration value in %q", s)
	}
	return Duration{Value: v, Unit: unit}, nil
}

// -----------------------------------------------------------------------------
// WhatToShow
// -----------------------------------------------------------------------------

type WhatToShow string

const (
	WhatToShowTrades         WhatToShow = "TRADES"
	WhatToShowMidPoint       WhatToShow = "MIDPOINT"
	WhatToShowBid            WhatToShow = "BID"
	WhatToShowAsk            WhatToShow = "ASK"
	WhatToShowBidAsk         WhatToShow = "BID_ASK"
	WhatToShowAdjustedLast   WhatToShow = "ADJUSTED_LAST"
	WhatToShowSchedule       WhatToShow = "SCHEDULE"
	WhatToShowHistoricalVol  WhatToShow = "HISTORICAL_VOLATILITY"
	WhatToShowOptionImpliedV WhatToShow = "OPTION_IMPLIED_VOLATILITY"
)

func (w WhatToShow) ToField() string { return string(w) }
