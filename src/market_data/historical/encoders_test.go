package historical

import (
	"strings"
	"testing"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/models"
	"gateway-stream/src/versions"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var endDate = time.Date(2023, 4, 10, 14, 0, 0, 0, time.UTC)

// msftBlock is the contract block pushContract writes for models.Stock("MSFT").
const msftBlock = "0|MSFT|STK||0|||SMART||USD|||0"

func fields(s string) []string {
	return strings.Split(s, "|")
}

func TestEncodeHistoricalDataAtRealtimeBarsVersion(t *testing.T) {
	msg, err := EncodeRequestHistoricalData(versions.SyntRealtimeBars, 9000, models.Stock("MSFT"), &endDate,
		models.Duration{Value: 30, Unit: models.Days}, models.BarSizeDay, nil, false, true, nil)
	require.NoError(t, err)

	want := []string{
		"20", "9000", "0",
		"MSFT", "STK", "", "0", "", "", "SMART", "", "USD", "",
		"", "0",
		"20230410 14:00:00 UTC", "1 day", "30 D", "0", "", "2",
		"1", "",
	}
	if diff := cmp.Diff(want, msg.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeHistoricalDataBelowEveryThreshold(t *testing.T) {
	trades := models.WhatToShowTrades
	bag := models.MContract{
		Symbol:       "SPY",
		SecurityType: models.SecurityTypeBag,
		Exchange:     "SMART",
		Currency:     "USD",
		ComboLegs: []models.MComboLeg{
			{ContractID: 756733, Ratio: 1, Action: models.ActionBuy, Exchange: "SMART"},
			{ContractID: 1000, Ratio: 2, Action: models.ActionSell, Exchange: "SMART"},
		},
	}

	msg, err := EncodeRequestHistoricalData(67, 9000, bag, nil,
		models.Duration{Value: 1, Unit: models.Days}, models.BarSizeHour, &trades, true, true,
		[]models.MTagValue{{Tag: "a", Value: "b"}})
	require.NoError(t, err)

	want := []string{
		"20", "6", "9000",
		"SPY", "BAG", "", "0", "", "", "SMART", "", "USD", "",
		"0",
		"", "1 hour", "1 D", "1", "TRADES", "2",
		"2",
		"756733", "1", "BUY", "SMART",
		"1000", "2", "SELL", "SMART",
	}
	if diff := cmp.Diff(want, msg.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeHistoricalDataVersionGates(t *testing.T) {
	cases := []struct {
		serverVersion int32
		length        int
		first         []string
	}{
		{serverVersion: 67, length: 20, first: []string{"20", "6", "9000", "MSFT"}},
		{serverVersion: versions.TradingClass, length: 22, first: []string{"20", "6", "9000", "0"}},
		{serverVersion: versions.Linking, length: 23, first: []string{"20", "6", "9000", "0"}},
		{serverVersion: versions.SyntRealtimeBars - 1, length: 23, first: []string{"20", "6", "9000", "0"}},
		{serverVersion: versions.SyntRealtimeBars, length: 23, first: []string{"20", "9000", "0", "MSFT"}},
		{serverVersion: versions.MaxClientVersion, length: 23, first: []string{"20", "9000", "0", "MSFT"}},
	}

	for _, tc := range cases {
		msg, err := EncodeRequestHistoricalData(tc.serverVersion, 9000, models.Stock("MSFT"), &endDate,
			models.Duration{Value: 2, Unit: models.Weeks}, models.BarSizeDay, nil, false, false, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.length, msg.Len(), "server version %d", tc.serverVersion)
		assert.Equal(t, tc.first, msg.Fields()[:4], "server version %d", tc.serverVersion)
	}
}

func TestEncodeHistoricalDataNormalizesEndDateToUTC(t *testing.T) {
	edt := time.FixedZone("EDT", -4*3600)
	local := time.Date(2023, 4, 15, 10, 0, 0, 0, edt)

	msg, err := EncodeRequestHistoricalData(versions.MaxClientVersion, 1, models.Stock("MSFT"), &local,
		models.Duration{Value: 1, Unit: models.Days}, models.BarSizeMin5, nil, true, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "20230415 14:00:00 UTC", msg.Field(15))
}

func TestEncodeHistoricalDataRejectsZeroTime(t *testing.T) {
	var zero time.Time
	_, err := EncodeRequestHistoricalData(versions.MaxClientVersion, 1, models.Stock("MSFT"), &zero,
		models.Duration{Value: 1, Unit: models.Days}, models.BarSizeDay, nil, true, false, nil)

	var encErr *helpers.EncodingError
	assert.ErrorAs(t, err, &encErr)
}

func TestEncodeOtherRequests(t *testing.T) {
	headTimestamp, err := EncodeRequestHeadTimestamp(9000, models.Stock("MSFT"), models.WhatToShowTrades, true)
	require.NoError(t, err)

	ticks, err := EncodeRequestHistoricalTicks(9000, models.Stock("MSFT"), &endDate, nil, 1000,
		models.WhatToShowMidPoint, true, false)
	require.NoError(t, err)

	histogram, err := EncodeRequestHistogramData(9000, models.Stock("MSFT"), false, models.BarSizeWeek)
	require.NoError(t, err)

	got := []string{headTimestamp.String(), ticks.String(), histogram.String()}
	want := []string{
		"87|9000|" + msftBlock + "|1|TRADES|2",
		"96|9000|" + msftBlock + "|20230410 14:00:00 UTC||1000|MIDPOINT|1|0|",
		"88|9000|" + msftBlock + "|0|1 week",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, fields(want[0]), headTimestamp.Fields())
}

func TestEncodeCancels(t *testing.T) {
	historical, err := EncodeCancelHistoricalData(9000)
	require.NoError(t, err)
	assert.Equal(t, "25|1|9000", historical.String())

	histogram, err := EncodeCancelHistogramData(9000)
	require.NoError(t, err)
	assert.Equal(t, "89|9000", histogram.String())

	head, err := EncodeCancelHeadTimestamp(versions.CancelHeadTimestamp, 9000)
	require.NoError(t, err)
	assert.Equal(t, "90|9000", head.String())

	_, err = EncodeCancelHeadTimestamp(versions.CancelHeadTimestamp-1, 9000)
	var encErr *helpers.EncodingError
	assert.ErrorAs(t, err, &encErr)
}
