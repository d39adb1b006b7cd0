// Package depth streams order book updates.
package depth

import (
	"context"

	"gateway-stream/src/client"
	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"
)

const (
	requestDepthVersion = 5
	cancelDepthVersion  = 1
)

// -----------------------------------------------------------------------------
// Encoders
// -----------------------------------------------------------------------------

// EncodeRequestMarketDepth asks for numberOfRows levels of the book.
func EncodeRequestMarketDepth(serverVersion int32, requestID int32, contract models.MContract, numberOfRows int32, isSmartDepth bool) (*messages.RequestMessage, error) {
	if isSmartDepth && !versions.Supports(serverVersion, versions.SmartDepth) {
		return nil, helpers.NewEncodingError("server version %d does not support smart depth (needs %d)", serverVersion, versions.SmartDepth)
	}

	m := messages.NewRequestMessage(messages.RequestMarketDepth).Push(requestDepthVersion, requestID)

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
	)
	if versions.Supports(serverVersion, versions.MktDepthPrimExchange) {
		m.Push(contract.PrimaryExchange)
	}
	m.Push(contract.Currency, contract.LocalSymbol)
	if versions.Supports(serverVersion, versions.TradingClass) {
		m.Push(contract.TradingClass)
	}

	m.Push(numberOfRows)

	if versions.Supports(serverVersion, versions.SmartDepth) {
		m.Push(isSmartDepth)
	}
	if versions.Supports(serverVersion, versions.Linking) {
		// market depth options, reserved
		m.Push("")
	}
	return m, nil
}

func EncodeCancelMarketDepth(serverVersion int32, requestID int32, isSmartDepth bool) (*messages.RequestMessage, error) {
	m := messages.NewRequestMessage(messages.CancelMarketDepth).Push(cancelDepthVersion, requestID)
	if versions.Supports(serverVersion, versions.SmartDepth) {
		m.Push(isSmartDepth)
	}
	return m, nil
}

// -----------------------------------------------------------------------------
// Decoder
// -----------------------------------------------------------------------------

// MarketDepthDecoder yields book rows from both the plain and the L2 feed.
type MarketDepthDecoder struct {
	subscriptions.DecoderDefaults[models.MMarketDepth]
}

func (MarketDepthDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.MarketDepth, messages.MarketDepthL2, messages.Error}
}

func (MarketDepthDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (models.MMarketDepth, error) {
	switch msg.MessageType() {
	case messages.MarketDepth:
		return decodeDepthRow(serverVersion, msg, false)
	case messages.MarketDepthL2:
		return decodeDepthRow(serverVersion, msg, true)
	case messages.Error:
		return models.MMarketDepth{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return models.MMarketDepth{}, msg.Unexpected()
	}
}

// CancelMessage repeats the smart depth flag of the original request.
func (MarketDepthDecoder) CancelMessage(serverVersion int32, id subscriptions.Identity, ctx subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelMarketDepth(serverVersion, requestID, ctx.IsSmartDepth)
}

// 12, version, id, position, operation, side, price, size
// 13, version, id, position, market maker, operation, side, price, size, [smart depth]
func decodeDepthRow(serverVersion int32, msg *messages.ResponseMessage, l2 bool) (models.MMarketDepth, error) {
	var row models.MMarketDepth
	var err error

	for range 3 {
		if err = msg.Skip(); err != nil {
			return row, err
		}
	}
	if row.Position, err = msg.NextInt(); err != nil {
		return row, err
	}
	if l2 {
		if row.MarketMaker, err = msg.NextString(); err != nil {
			return row, err
		}
	}
	op, err := msg.NextInt()
	if err != nil {
		return row, err
	}
	row.Operation = models.DepthOperation(op)
	if row.Side, err = msg.NextInt(); err != nil {
		return row, err
	}
	if row.Price, err = msg.NextDouble(); err != nil {
		return row, err
	}
	if row.Size, err = msg.NextDecimal(); err != nil {
		return row, err
	}
	if l2 && versions.Supports(serverVersion, versions.SmartDepth) {
		if row.IsSmartDepth, err = msg.NextBool(); err != nil {
			return row, err
		}
	}
	return row, nil
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	client *client.Client
}

func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// MarketDepth streams book updates until cancelled.
func (s *Service) MarketDepth(ctx context.Context, contract models.MContract, numberOfRows int32, isSmartDepth bool) (*subscriptions.Subscription[models.MMarketDepth], error) {
	id := s.client.NextRequestID()
	msg, err := EncodeRequestMarketDepth(s.client.ServerVersion(), id, contract, numberOfRows, isSmartDepth)
	if err != nil {
		return nil, err
	}
	return client.Subscribe[models.MMarketDepth](ctx, s.client, id, msg, MarketDepthDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestMarketDepth, IsSmartDepth: isSmartDepth})
}
