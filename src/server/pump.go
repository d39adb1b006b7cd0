package server

import (
	"context"
	"errors"
	"io"

	"gateway-stream/src/interfaces"
	"gateway-stream/src/models"
	"gateway-stream/src/subscriptions"
)

// Pump relays every value of sub to relay under stream until the
// subscription ends or ctx is done. It returns nil on a clean end of stream.
func Pump[T any](ctx context.Context, sub *subscriptions.Subscription[T], relay interfaces.IDataExchanger, stream string) error {
	for {
		v, err := sub.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		relay.Broadcast(&models.MRelayMessage{Stream: stream, Data: v})
	}
}
