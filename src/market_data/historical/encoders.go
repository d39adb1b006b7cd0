package historical

import (
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/versions"
)

const (
	// historicalDataVersion is the legacy message version sent before
	// versions.SyntRealtimeBars.
	historicalDataVersion = 6

	// dateFormat 2 asks for bar dates as epoch seconds.
	dateFormat = 2
)

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// EncodeRequestHistoricalData builds the bar request. Fields missing below the
// negotiated version are omitted, never sent empty.
func EncodeRequestHistoricalData(
	serverVersion int32,
	requestID int32,
	contract models.MContract,
	endDate *time.Time,
	duration models.Duration,
	barSize models.BarSize,
	whatToShow *models.WhatToShow,
	useRTH bool,
	keepUpToDate bool,
	chartOptions []models.MTagValue,
) (*messages.RequestMessage, error) {
	end, err := messages.EncodeTimestamp(endDate)
	if err != nil {
		return nil, err
	}

	m := messages.NewRequestMessage(messages.RequestHistoricalData)

	if !versions.Supports(serverVersion, versions.SyntRealtimeBars) {
		m.Push(historicalDataVersion)
	}

	m.Push(requestID)

	if versions.Supports(serverVersion, versions.TradingClass) {
		m.Push(contract.ContractID)
	}

	m.Push(
		contract.Symbol,
		contract.SecurityType,
		contract.LastTradeDate,
		contract.Strike,
		contract.Right,
		contract.Multiplier,
		contract.Exchange,
		contract.PrimaryExchange,
		contract.Currency,
		contract.LocalSymbol,
	)

	if versions.Supports(serverVersion, versions.TradingClass) {
		m.Push(contract.TradingClass)
	}

	m.Push(contract.IncludeExpired, end, barSize, duration, useRTH, optionalWhatToShow(whatToShow), dateFormat)

	if contract.IsBag() {
		pushComboLegs(m, contract.ComboLegs)
	}

	if versions.Supports(serverVersion, versions.SyntRealtimeBars) {
		m.Push(keepUpToDate)
	}

	if versions.Supports(serverVersion, versions.Linking) {
		m.Push(models.TagValues(chartOptions))
	}

	return m, nil
}

// EncodeRequestHeadTimestamp asks for the earliest available data point.
func EncodeRequestHeadTimestamp(requestID int32, contract models.MContract, whatToShow models.WhatToShow, useRTH bool) (*messages.RequestMessage, error) {
	m := messages.NewRequestMessage(messages.RequestHeadTimestamp).Push(requestID)
	pushContract(m, contract)
	m.Push(useRTH, whatToShow, dateFormat)
	return m, nil
}

// EncodeRequestHistoricalTicks asks for up to numberOfTicks ticks between
// start and end. Exactly one of the two is normally set.
func EncodeRequestHistoricalTicks(
	requestID int32,
	contract models.MContract,
	start *time.Time,
	end *time.Time,
	numberOfTicks int32,
	whatToShow models.WhatToShow,
	useRTH bool,
	ignoreSize bool,
) (*messages.RequestMessage, error) {
	startField, err := messages.EncodeTimestamp(start)
	if err != nil {
		return nil, err
	}
	endField, err := messages.EncodeTimestamp(end)
	if err != nil {
		return nil, err
	}

	m := messages.NewRequestMessage(messages.RequestHistoricalTicks).Push(requestID)
	pushContract(m, contract)
	m.Push(startField, endField, numberOfTicks, whatToShow, useRTH, ignoreSize, "")
	return m, nil
}

// EncodeRequestHistogramData asks for the volume distribution over period.
func EncodeRequestHistogramData(requestID int32, contract models.MContract, useRTH bool, period models.BarSize) (*messages.RequestMessage, error) {
	m := messages.NewRequestMessage(messages.RequestHistogramData).Push(requestID)
	pushContract(m, contract)
	m.Push(useRTH, period)
	return m, nil
}

// -----------------------------------------------------------------------------
// Cancels
// -----------------------------------------------------------------------------

func EncodeCancelHistoricalData(requestID int32) (*messages.RequestMessage, error) {
	return messages.NewRequestMessage(messages.CancelHistoricalData).Push(1, requestID), nil
}

func EncodeCancelHeadTimestamp(serverVersion int32, requestID int32) (*messages.RequestMessage, error) {
	if !versions.Supports(serverVersion, versions.CancelHeadTimestamp) {
		return nil, helpers.NewEncodingError("server version %d does not support head timestamp cancellation (needs %d)",
			serverVersion, versions.CancelHeadTimestamp)
	}
	return messages.NewRequestMessage(messages.CancelHeadTimestamp).Push(requestID), nil
}

func EncodeCancelHistogramData(requestID int32) (*messages.RequestMessage, error) {
	return messages.NewRequestMessage(messages.CancelHistogramData).Push(requestID), nil
}

// -----------------------------------------------------------------------------

// pushContract writes the full contract block used by requests that have no
// version gates of their own.
func pushContract(m *messages.RequestMessage, c models.MContract) {
	m.Push(
		c.ContractID,
		c.Symbol,
		c.SecurityType,
		c.LastTradeDate,
		c.Strike,
		c.Right,
		c.Multiplier,
		c.Exchange,
		c.PrimaryExchange,
		c.Currency,
		c.LocalSymbol,
		c.TradingClass,
		c.IncludeExpired,
	)
}

func pushComboLegs(m *messages.RequestMessage, legs []models.MComboLeg) {
	m.Push(len(legs))
	for _, leg := range legs {
		m.Push(leg.ContractID, leg.Ratio, leg.Action, leg.Exchange)
	}
}

func optionalWhatToShow(w *models.WhatToShow) string {
	if w == nil {
		return ""
	}
	return w.ToField()
}
