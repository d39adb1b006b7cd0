package accounts

import (
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
)

// PositionsMultiDecoder yields positions, then an End marker once the initial
// snapshot is complete. Updates continue after End.
type PositionsMultiDecoder struct {
	subscriptions.DecoderDefaults[models.MPositionUpdateMulti]
}

func (PositionsMultiDecoder) ResponseMessageIDs() []messages.IncomingMessages {
	return []messages.IncomingMessages{messages.PositionMulti, messages.PositionMultiEnd, messages.Error}
}

func (PositionsMultiDecoder) Decode(serverVersion int32, msg *messages.ResponseMessage) (models.MPositionUpdateMulti, error) {
	switch msg.MessageType() {
	case messages.PositionMulti:
		position, err := decodePositionMulti(msg)
		if err != nil {
			return models.MPositionUpdateMulti{}, err
		}
		return models.MPositionUpdateMulti{Position: &position}, nil
	case messages.PositionMultiEnd:
		return models.MPositionUpdateMulti{End: true}, nil
	case messages.Error:
		return models.MPositionUpdateMulti{}, messages.DecodeServerError(serverVersion, msg)
	default:
		return models.MPositionUpdateMulti{}, msg.Unexpected()
	}
}

func (PositionsMultiDecoder) CancelMessage(_ int32, id subscriptions.Identity, _ subscriptions.ResponseContext) (*messages.RequestMessage, error) {
	requestID, err := id.RequireRequestID()
	if err != nil {
		return nil, err
	}
	return EncodeCancelPositionsMulti(requestID)
}

// 71, version, request id, account, contract (11 fields), position, average
// cost, model code
func decodePositionMulti(msg *messages.ResponseMessage) (models.MPositionMulti, error) {
	var p models.MPositionMulti
	var err error

	for range 3 {
		if err = msg.Skip(); err != nil {
			return p, err
		}
	}
	if p.Account, err = msg.NextString(); err != nil {
		return p, err
	}

	c := &p.Contract
	if c.ContractID, err = msg.NextInt(); err != nil {
		return p, err
	}
	if c.Symbol, err = msg.NextString(); err != nil {
		return p, err
	}
	secType, err := msg.NextString()
	if err != nil {
		return p, err
	}
	c.SecurityType = models.SecurityType(secType)
	if c.LastTradeDate, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.Strike, err = msg.NextDouble(); err != nil {
		return p, err
	}
	if c.Right, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.Multiplier, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.Exchange, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.Currency, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.LocalSymbol, err = msg.NextString(); err != nil {
		return p, err
	}
	if c.TradingClass, err = msg.NextString(); err != nil {
		return p, err
	}

	if p.Position, err = msg.NextDecimal(); err != nil {
		return p, err
	}
	if p.AverageCost, err = msg.NextDouble(); err != nil {
		return p, err
	}
	if p.ModelCode, err = msg.NextString(); err != nil {
		return p, err
	}
	return p, nil
}
