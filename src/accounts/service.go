package accounts

import (
	"context"

	"gateway-stream/src/client"
	"gateway-stream/src/messages"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"
)

type Service struct {
	client *client.Client
}

func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

func (s *Service) positionsMultiRequest(account, modelCode string) (int32, *messages.RequestMessage, error) {
	if err := s.client.RequireVersion(versions.ModelsSupport, "positions multi"); err != nil {
		return 0, nil, err
	}
	id := s.client.NextRequestID()
	msg, err := EncodeRequestPositionsMulti(id, account, modelCode)
	return id, msg, err
}

// PositionsMulti streams positions for account and modelCode until cancelled.
func (s *Service) PositionsMulti(ctx context.Context, account, modelCode string) (*subscriptions.Subscription[models.MPositionUpdateMulti], error) {
	id, msg, err := s.positionsMultiRequest(account, modelCode)
	if err != nil {
		return nil, err
	}
	return client.Subscribe[models.MPositionUpdateMulti](ctx, s.client, id, msg, PositionsMultiDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestPositionsMulti})
}

// PositionsMultiSync is PositionsMulti for blocking iteration.
func (s *Service) PositionsMultiSync(ctx context.Context, account, modelCode string) (*subscriptions.SyncSubscription[models.MPositionUpdateMulti], error) {
	id, msg, err := s.positionsMultiRequest(account, modelCode)
	if err != nil {
		return nil, err
	}
	return client.SubscribeSync[models.MPositionUpdateMulti](ctx, s.client, id, msg, PositionsMultiDecoder{},
		subscriptions.ResponseContext{RequestType: messages.RequestPositionsMulti})
}
