package depth

import (
	"context"
	"testing"

	"gateway-stream/src/client"
	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions/subscriptionstest"
	"gateway-stream/src/versions"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMarketDepthVersionGates(t *testing.T) {
	contract := models.Stock("IBM")
	contract.PrimaryExchange = "NYSE"

	cases := []struct {
		name          string
		serverVersion int32
		want          string
	}{
		{"legacy", 67, "10|5|9000|IBM|STK||0|||SMART|USD||5"},
		{"trading class", versions.TradingClass, "10|5|9000|0|IBM|STK||0|||SMART|USD|||5"},
		{"options", versions.Linking, "10|5|9000|0|IBM|STK||0|||SMART|USD|||5|"},
		{"smart depth", versions.SmartDepth, "10|5|9000|0|IBM|STK||0|||SMART|USD|||5|0|"},
		{"primary exchange", versions.MktDepthPrimExchange, "10|5|9000|0|IBM|STK||0|||SMART|NYSE|USD|||5|0|"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := EncodeRequestMarketDepth(tc.serverVersion, 9000, contract, 5, false)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, msg.String()); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeSmartDepthRequiresVersion(t *testing.T) {
	_, err := EncodeRequestMarketDepth(versions.SmartDepth-1, 1, models.Stock("IBM"), 5, true)
	var encErr *helpers.EncodingError
	assert.ErrorAs(t, err, &encErr)
}

func TestCancelCarriesSmartDepthFlag(t *testing.T) {
	smart, err := EncodeCancelMarketDepth(versions.SmartDepth, 9000, true)
	require.NoError(t, err)
	assert.Equal(t, "11|1|9000|1", smart.String())

	legacy, err := EncodeCancelMarketDepth(versions.SmartDepth-1, 9000, true)
	require.NoError(t, err)
	assert.Equal(t, "11|1|9000", legacy.String())
}

func TestDecodeDepthRows(t *testing.T) {
	var d MarketDepthDecoder

	plain, err := d.Decode(196, messages.FromSimple("12|1|9000|0|1|1|185.25|300"))
	require.NoError(t, err)
	assert.Equal(t, models.DepthUpdate, plain.Operation)
	assert.Equal(t, int32(1), plain.Side)
	assert.True(t, plain.Size.Equal(decimal.NewFromInt(300)))

	l2, err := d.Decode(196, messages.FromSimple("13|1|9000|2|ARCA|0|0|185.3|100|1"))
	require.NoError(t, err)
	assert.Equal(t, "ARCA", l2.MarketMaker)
	assert.Equal(t, models.DepthInsert, l2.Operation)
	assert.True(t, l2.IsSmartDepth)

	old, err := d.Decode(140, messages.FromSimple("13|1|9000|2|ARCA|2|0|185.3|100"))
	require.NoError(t, err)
	assert.Equal(t, models.DepthDelete, old.Operation)
	assert.False(t, old.IsSmartDepth)
}

func TestMarketDepthCancelUsesResponseContext(t *testing.T) {
	bus := subscriptionstest.NewBus(196)
	svc := NewService(client.New(bus, 196))
	ctx := context.Background()

	sub, err := svc.MarketDepth(ctx, models.Stock("IBM"), 5, true)
	require.NoError(t, err)
	assert.True(t, sub.ResponseContext().IsSmartDepth)
	assert.Equal(t, messages.RequestMarketDepth, sub.ResponseContext().RequestType)

	bus.Channel(9000).Push("13|1|9000|0|ISLAND|0|1|185.2|200|1")
	row, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ISLAND", row.MarketMaker)

	sub.Cancel(ctx)
	assert.Equal(t, []string{"11|1|9000|1"}, bus.Sent())
}
