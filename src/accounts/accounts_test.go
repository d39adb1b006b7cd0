package accounts

import (
	"context"
	"testing"

	"gateway-stream/src/client"
	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/subscriptions/subscriptionstest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const positionMSFT = "71|1|9000|DU1234567|272093|MSFT|STK||0|||NASDAQ|USD|MSFT|NMS|500|235.5|"

func TestEncodePositionsMulti(t *testing.T) {
	req, err := EncodeRequestPositionsMulti(9000, "DU1234567", "")
	require.NoError(t, err)
	assert.Equal(t, "74|1|9000|DU1234567|", req.String())

	cancel, err := EncodeCancelPositionsMulti(9000)
	require.NoError(t, err)
	assert.Equal(t, "75|1|9000", cancel.String())
}

func TestDecodePositionMulti(t *testing.T) {
	var d PositionsMultiDecoder

	update, err := d.Decode(196, messages.FromSimple(positionMSFT))
	require.NoError(t, err)
	require.NotNil(t, update.Position)
	assert.False(t, update.End)

	p := update.Position
	assert.Equal(t, "DU1234567", p.Account)
	assert.Equal(t, int32(272093), p.Contract.ContractID)
	assert.Equal(t, models.SecurityTypeStock, p.Contract.SecurityType)
	assert.Equal(t, "NMS", p.Contract.TradingClass)
	assert.True(t, p.Position.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 235.5, p.AverageCost)
	assert.Empty(t, p.ModelCode)

	end, err := d.Decode(196, messages.FromSimple("72|1|9000"))
	require.NoError(t, err)
	assert.True(t, end.End)
	assert.Nil(t, end.Position)
	assert.False(t, d.IsSnapshotEnd(end), "updates continue after the end marker")
}

func TestDecodePositionMultiTruncated(t *testing.T) {
	_, err := PositionsMultiDecoder{}.Decode(196, messages.FromSimple("71|1|9000|DU1234567|272093"))

	var parseErr *helpers.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestPositionsMultiStreamsPastEnd(t *testing.T) {
	bus := subscriptionstest.NewBus(196)
	svc := NewService(client.New(bus, 196))
	ctx := context.Background()

	sub, err := svc.PositionsMulti(ctx, "DU1234567", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"74|1|9000|DU1234567|"}, bus.Requests())

	ch := bus.Channel(9000)
	ch.Push(positionMSFT)
	ch.Push("72|1|9000")
	ch.Push(positionMSFT)

	for _, wantEnd := range []bool{false, true, false} {
		update, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, wantEnd, update.End)
	}
	assert.Equal(t, subscriptions.Active, sub.State())

	sub.Cancel(ctx)
	assert.Equal(t, []string{"75|1|9000"}, bus.Sent())
}

func TestPositionsMultiSync(t *testing.T) {
	bus := subscriptionstest.NewBus(196)
	svc := NewService(client.New(bus, 196))

	sub, err := svc.PositionsMultiSync(context.Background(), "DU1234567", "")
	require.NoError(t, err)

	ch := bus.Channel(9000)
	ch.Push(positionMSFT)
	ch.Push("72|1|9000")
	ch.Push("4|9000|321|Error validating request")

	var accounts []string
	for update := range sub.Iter() {
		if update.Position != nil {
			accounts = append(accounts, update.Position.Account)
		}
	}
	assert.Equal(t, []string{"DU1234567"}, accounts)

	var serverErr *helpers.ServerError
	require.ErrorAs(t, sub.Err(), &serverErr)
	assert.Equal(t, int32(321), serverErr.Code)
}

func TestPositionsMultiRequiresModelsSupport(t *testing.T) {
	bus := subscriptionstest.NewBus(102)
	svc := NewService(client.New(bus, 102))

	_, err := svc.PositionsMulti(context.Background(), "DU1234567", "")
	var encErr *helpers.EncodingError
	assert.ErrorAs(t, err, &encErr)
	assert.Empty(t, bus.Requests())
}
