package historical

import (
	"testing"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epoch = 1681135200 // 2023-04-10 14:00:00 UTC

var epochTime = time.Unix(epoch, 0).UTC()

// decimalEqual lets cmp compare decimals by value.
var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecodeHistoricalDataChunkAndEnd(t *testing.T) {
	var d HistoricalDataDecoder
	sv := versions.MaxClientVersion

	chunk, err := d.Decode(sv, messages.FromSimple("17|9000|1|1681135200|100.5|101|99.5|100.75|1200|100.6|15"))
	require.NoError(t, err)
	assert.False(t, d.IsSnapshotEnd(chunk))

	want := models.MHistoricalData{
		RequestID: 9000,
		Bars: []models.MBar{{
			Date: epochTime, Open: 100.5, High: 101, Low: 99.5, Close: 100.75,
			Volume: dec("1200"), WAP: dec("100.6"), BarCount: 15,
		}},
	}
	if diff := cmp.Diff(want, chunk, decimalEqual); diff != "" {
		t.Errorf("chunk mismatch (-want +got):\n%s", diff)
	}

	end, err := d.Decode(sv, messages.FromSimple("108|9000|20230410 00:00:00|20230411 00:00:00"))
	require.NoError(t, err)
	assert.True(t, d.IsSnapshotEnd(end))
	assert.Equal(t, time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC), end.Start)
	assert.Equal(t, time.Date(2023, 4, 11, 0, 0, 0, 0, time.UTC), end.End)
}

func TestDecodeHistoricalDataLegacyLayout(t *testing.T) {
	var d HistoricalDataDecoder

	chunk, err := d.Decode(110, messages.FromSimple("17|3|9000|20230410|20230411|1|20230410|1|2|0.5|1.5|10|1.2|false|3"))
	require.NoError(t, err)

	assert.True(t, chunk.Complete)
	assert.Equal(t, time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC), chunk.Start)
	require.Len(t, chunk.Bars, 1)
	assert.Equal(t, 1.5, chunk.Bars[0].Close)
	assert.Equal(t, int32(3), chunk.Bars[0].BarCount)
}

func TestDecodeHistoricalDataUpdate(t *testing.T) {
	var d HistoricalUpdatesDecoder

	bar, err := d.Decode(versions.MaxClientVersion, messages.FromSimple("90|9000|5|1681135200|1|2|3|0.5|1.5|100"))
	require.NoError(t, err)

	want := models.MBar{Date: epochTime, Open: 1, Close: 2, High: 3, Low: 0.5, WAP: dec("1.5"), Volume: dec("100"), BarCount: 5}
	if diff := cmp.Diff(want, bar, decimalEqual); diff != "" {
		t.Errorf("bar mismatch (-want +got):\n%s", diff)
	}

	_, err = d.Decode(versions.MaxClientVersion, messages.FromSimple("17|9000|0"))
	assert.True(t, helpers.IsUnexpectedResponse(err), "initial history is skipped")
}

func TestDecodeHeadTimestamp(t *testing.T) {
	var d HeadTimestampDecoder

	ts, err := d.Decode(versions.MaxClientVersion, messages.FromSimple("88|9000|1681135200"))
	require.NoError(t, err)
	assert.Equal(t, epochTime, ts)
	assert.True(t, d.IsSnapshotEnd(ts))

	cancel, err := d.CancelMessage(versions.MaxClientVersion, subscriptions.RequestIdentity(9000), subscriptions.ResponseContext{})
	require.NoError(t, err)
	assert.Equal(t, "90|9000", cancel.String())
}

func TestDecodeHistogram(t *testing.T) {
	var d HistogramDecoder

	entries, err := d.Decode(versions.MaxClientVersion, messages.FromSimple("89|9000|2|100.5|20|101|35"))
	require.NoError(t, err)

	want := []models.MHistogramEntry{
		{Price: 100.5, Size: dec("20")},
		{Price: 101, Size: dec("35")},
	}
	if diff := cmp.Diff(want, entries, decimalEqual); diff != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", diff)
	}

	_, err = d.Decode(versions.MaxClientVersion, messages.FromSimple("88|9000|1681135200"))
	assert.True(t, helpers.IsUnexpectedResponse(err))
}

func TestDecodeHistoricalTicks(t *testing.T) {
	var d HistoricalTicksDecoder
	sv := versions.MaxClientVersion

	midpoint, err := d.Decode(sv, messages.FromSimple("96|9000|2|1681135200||100.25|0|1681135201||100.5|0|0"))
	require.NoError(t, err)
	assert.Equal(t, 2, midpoint.Len())
	assert.False(t, d.IsSnapshotEnd(midpoint))

	bidAsk, err := d.Decode(sv, messages.FromSimple("97|9000|1|1681135200|2|99|100|10|20|0"))
	require.NoError(t, err)
	require.Len(t, bidAsk.BidAsk, 1)
	assert.True(t, bidAsk.BidAsk[0].PastLow)
	assert.False(t, bidAsk.BidAsk[0].PastHigh)
	assert.Equal(t, 100.0, bidAsk.BidAsk[0].PriceAsk)

	last, err := d.Decode(sv, messages.FromSimple("98|9000|1|1681135200|3|100.25|50|ISLAND|I|1"))
	require.NoError(t, err)
	require.Len(t, last.Last, 1)
	assert.True(t, d.IsSnapshotEnd(last))

	want := models.MTickLast{
		Time: epochTime, PastLimit: true, Unreported: true,
		Price: 100.25, Size: dec("50"), Exchange: "ISLAND", SpecialConditions: "I",
	}
	if diff := cmp.Diff(want, last.Last[0], decimalEqual); diff != "" {
		t.Errorf("tick mismatch (-want +got):\n%s", diff)
	}

	_, err = d.CancelMessage(sv, subscriptions.RequestIdentity(9000), subscriptions.ResponseContext{})
	assert.ErrorIs(t, err, helpers.ErrNotImplemented)
}

func TestDecodersSurfaceServerErrors(t *testing.T) {
	_, err := HistoricalDataDecoder{}.Decode(versions.MaxClientVersion, messages.FromSimple("4|9000|162|Historical Market Data Service error message"))

	var serverErr *helpers.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, int32(162), serverErr.Code)
	assert.Equal(t, int32(9000), serverErr.RequestID)

	// below the error-time version a message version precedes the id
	_, err = HistogramDecoder{}.Decode(150, messages.FromSimple("4|2|9000|200|No security definition"))
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, int32(200), serverErr.Code)
}

func TestDecoderMalformedFieldIsParseError(t *testing.T) {
	_, err := HistogramDecoder{}.Decode(versions.MaxClientVersion, messages.FromSimple("89|9000|x"))

	var parseErr *helpers.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDecodersRejectCountsBeyondMessage(t *testing.T) {
	sv := versions.MaxClientVersion

	tests := []struct {
		name   string
		decode func() error
	}{
		{
			name: "bar count larger than the message",
			decode: func() error {
				_, err := HistoricalDataDecoder{}.Decode(sv, messages.FromSimple("17|9000|2147483647|1681135200|100.5|101|99.5|100.75|1200|100.6|15"))
				return err
			},
		},
		{
			name: "legacy bar count one past the fields",
			decode: func() error {
				_, err := HistoricalDataDecoder{}.Decode(110, messages.FromSimple("17|3|9000|20230410|20230411|2|20230410|1|2|0.5|1.5|10|1.2|false|3"))
				return err
			},
		},
		{
			name: "negative bar count",
			decode: func() error {
				_, err := HistoricalDataDecoder{}.Decode(sv, messages.FromSimple("17|9000|-1"))
				return err
			},
		},
		{
			name: "histogram count larger than the message",
			decode: func() error {
				_, err := HistogramDecoder{}.Decode(sv, messages.FromSimple("89|9000|2147483647|100|5"))
				return err
			},
		},
		{
			name: "negative histogram count",
			decode: func() error {
				_, err := HistogramDecoder{}.Decode(sv, messages.FromSimple("89|9000|-3"))
				return err
			},
		},
		{
			name: "tick count larger than the message",
			decode: func() error {
				_, err := HistoricalTicksDecoder{}.Decode(sv, messages.FromSimple("98|9000|2147483647|1681135200|3|100.25|50|ISLAND|I|1"))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parseErr *helpers.ParseError
			assert.ErrorAs(t, tt.decode(), &parseErr)
		})
	}
}

func TestCancelRequiresRequestIdentity(t *testing.T) {
	_, err := HistoricalDataDecoder{}.CancelMessage(versions.MaxClientVersion, subscriptions.OrderIdentity(3), subscriptions.ResponseContext{})

	var encErr *helpers.EncodingError
	assert.ErrorAs(t, err, &encErr)
}
