package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MBar is one OHLC bar as reported by the gateway.
type MBar struct {
	Date     time.Time       `json:"date"`
	Open     float64         `json:"open"`
	High     float64         `json:"high"`
	Low      float64         `json:"low"`
	Close    float64         `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	WAP      decimal.Decimal `json:"wap"`
	BarCount int32           `json:"bar_count"` // trades in the bar, -1 when unknown
}

// MHistoricalData is one chunk of a historical bar request. The chunk with
// Complete set is the last one.
type MHistoricalData struct {
	RequestID int32     `json:"request_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Bars      []MBar    `json:"bars"`
	Complete  bool      `json:"complete"`
}

// MHistogramEntry is the volume traded at one price.
type MHistogramEntry struct {
	Price float64         `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// -----------------------------------------------------------------------------
// Ticks
// -----------------------------------------------------------------------------

type MTickMidpoint struct {
	Time  time.Time       `json:"time"`
	Price float64         `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

type MTickBidAsk struct {
	Time     time.Time       `json:"time"`
	PastLow  bool            `json:"past_low"`  // bid below day low
	PastHigh bool            `json:"past_high"` // ask above day high
	PriceBid float64         `json:"price_bid"`
	PriceAsk float64         `json:"price_ask"`
	SizeBid  decimal.Decimal `json:"size_bid"`
	SizeAsk  decimal.Decimal `json:"size_ask"`
}

type MTickLast struct {
	Time              time.Time       `json:"time"`
	PastLimit         bool            `json:"past_limit"`
	Unreported        bool            `json:"unreported"`
	Price             float64         `json:"price"`
	Size              decimal.Decimal `json:"size"`
	Exchange          string          `json:"exchange"`
	SpecialConditions string          `json:"special_conditions"`
}

// MHistoricalTicks is one batch of a historical ticks request. Exactly one of
// the slices is filled, depending on WhatToShow. Done marks the last batch.
type MHistoricalTicks struct {
	RequestID int32           `json:"request_id"`
	Midpoint  []MTickMidpoint `json:"midpoint,omitempty"`
	BidAsk    []MTickBidAsk   `json:"bid_ask,omitempty"`
	Last      []MTickLast     `json:"last,omitempty"`
	Done      bool            `json:"done"`
}

func (t MHistoricalTicks) Len() int {
	return len(t.Midpoint) + len(t.BidAsk) + len(t.Last)
}

// -----------------------------------------------------------------------------
// Depth
// -----------------------------------------------------------------------------

// DepthOperation is how a depth row changes the book.
type DepthOperation int32

const (
	DepthInsert DepthOperation = 0
	DepthUpdate DepthOperation = 1
	DepthDelete DepthOperation = 2
)

func (o DepthOperation) String() string {
	switch o {
	case DepthInsert:
		return "insert"
	case DepthUpdate:
		return "update"
	case DepthDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MMarketDepth is one order book row update. MarketMaker is only set for L2
// rows.
type MMarketDepth struct {
	Position     int32           `json:"position"`
	MarketMaker  string          `json:"market_maker,omitempty"`
	Operation    DepthOperation  `json:"operation"`
	Side         int32           `json:"side"` // 0 ask, 1 bid
	Price        float64         `json:"price"`
	Size         decimal.Decimal `json:"size"`
	IsSmartDepth bool            `json:"is_smart_depth"`
}

// -----------------------------------------------------------------------------
// Stored series
// -----------------------------------------------------------------------------

// MBarSeries identifies a stored bar series.
type MBarSeries struct {
	Symbol     string     `json:"symbol"`
	BarSize    BarSize    `json:"bar_size"`
	WhatToShow WhatToShow `json:"what_to_show"`
}

func (s MBarSeries) String() string {
	return s.Symbol + " " + string(s.BarSize) + " " + string(s.WhatToShow)
}
