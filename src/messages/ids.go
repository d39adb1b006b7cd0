package messages

import (
	"strconv"

	"gateway-stream/src/versions"
)

// -----------------------------------------------------------------------------
// OutgoingMessages identifies client -> server records (field 0).
// -----------------------------------------------------------------------------

type OutgoingMessages int32

const (
	RequestMarketDepth     OutgoingMessages = 10
	CancelMarketDepth      OutgoingMessages = 11
	RequestHistoricalData  OutgoingMessages = 20
	CancelHistoricalData   OutgoingMessages = 25
	StartApi               OutgoingMessages = 71
	RequestPositionsMulti  OutgoingMessages = 74
	CancelPositionsMulti   OutgoingMessages = 75
	RequestHeadTimestamp   OutgoingMessages = 87
	RequestHistogramData   OutgoingMessages = 88
	CancelHistogramData    OutgoingMessages = 89
	CancelHeadTimestamp    OutgoingMessages = 90
	RequestHistoricalTicks OutgoingMessages = 96
)

var outgoingNames = map[OutgoingMessages]string{
	RequestMarketDepth:     "RequestMarketDepth",
	CancelMarketDepth:      "CancelMarketDepth",
	RequestHistoricalData:  "RequestHistoricalData",
	CancelHistoricalData:   "CancelHistoricalData",
	StartApi:               "StartApi",
	RequestPositionsMulti:  "RequestPositionsMulti",
	CancelPositionsMulti:   "CancelPositionsMulti",
	RequestHeadTimestamp:   "RequestHeadTimestamp",
	RequestHistogramData:   "RequestHistogramData",
	CancelHistogramData:    "CancelHistogramData",
	CancelHeadTimestamp:    "CancelHeadTimestamp",
	RequestHistoricalTicks: "RequestHistoricalTicks",
}

func (m OutgoingMessages) String() string {
	if name, ok := outgoingNames[m]; ok {
		return name
	}
	if m == 0 {
		return "Unknown"
	}
	return "Outgoing(" + strconv.Itoa(int(m)) + ")"
}

// ToField renders the id as it appears on the wire.
func (m OutgoingMessages) ToField() string {
	return strconv.Itoa(int(m))
}

// -----------------------------------------------------------------------------
// IncomingMessages identifies server -> client records (field 0).
// -----------------------------------------------------------------------------

type IncomingMessages int32

const (
	NotValid             IncomingMessages = -1
	OrderStatus          IncomingMessages = 3
	Error                IncomingMessages = 4
	NextValidId          IncomingMessages = 9
	MarketDepth          IncomingMessages = 12
	MarketDepthL2        IncomingMessages = 13
	ManagedAccounts      IncomingMessages = 15
	HistoricalData       IncomingMessages = 17
	PositionMulti        IncomingMessages = 71
	PositionMultiEnd     IncomingMessages = 72
	HeadTimestamp        IncomingMessages = 88
	HistogramData        IncomingMessages = 89
	HistoricalDataUpdate IncomingMessages = 90
	HistoricalTick       IncomingMessages = 96
	HistoricalTickBidAsk IncomingMessages = 97
	HistoricalTickLast   IncomingMessages = 98
	HistoricalDataEnd    IncomingMessages = 108
)

var incomingNames = map[IncomingMessages]string{
	OrderStatus:          "OrderStatus",
	Error:                "Error",
	NextValidId:          "NextValidId",
	MarketDepth:          "MarketDepth",
	MarketDepthL2:        "MarketDepthL2",
	ManagedAccounts:      "ManagedAccounts",
	HistoricalData:       "HistoricalData",
	PositionMulti:        "PositionMulti",
	PositionMultiEnd:     "PositionMultiEnd",
	HeadTimestamp:        "HeadTimestamp",
	HistogramData:        "HistogramData",
	HistoricalDataUpdate: "HistoricalDataUpdate",
	HistoricalTick:       "HistoricalTick",
	HistoricalTickBidAsk: "HistoricalTickBidAsk",
	HistoricalTickLast:   "HistoricalTickLast",
	HistoricalDataEnd:    "HistoricalDataEnd",
}

func (m IncomingMessages) String() string {
	if name, ok := incomingNames[m]; ok {
		return name
	}
	return "Incoming(" + strconv.Itoa(int(m)) + ")"
}

// ParseIncoming maps field 0 of a response to its id, NotValid when unknown.
func ParseIncoming(field string) IncomingMessages {
	n, err := strconv.Atoi(field)
	if err != nil {
		return NotValid
	}
	return IncomingMessages(n)
}

// -----------------------------------------------------------------------------
// Routing positions
// -----------------------------------------------------------------------------

// RequestIDIndex returns the field position holding the request id for
// messages routed by request id, or -1 when the message is not request scoped.
func RequestIDIndex(serverVersion int32, kind IncomingMessages) int {
	switch kind {
	case HeadTimestamp, HistogramData, HistoricalDataUpdate,
		HistoricalTick, HistoricalTickBidAsk, HistoricalTickLast, HistoricalDataEnd:
		return 1
	case MarketDepth, MarketDepthL2, PositionMulti, PositionMultiEnd:
		return 2
	case HistoricalData:
		if serverVersion < versions.SyntRealtimeBars {
			return 2
		}
		return 1
	case Error:
		if serverVersion < versions.ErrorTime {
			return 2
		}
		return 1
	default:
		return -1
	}
}

// OrderIDIndex returns the field position holding the order id for order
// scoped messages, or -1.
func OrderIDIndex(kind IncomingMessages) int {
	switch kind {
	case OrderStatus:
		return 1
	default:
		return -1
	}
}
