package interfaces

import (
	"context"

	"gateway-stream/src/messages"
)

// -----------------------------------------------------------------------------
// IResponseChannel is the per-request source of raw messages.
// -----------------------------------------------------------------------------

type IResponseChannel interface {

	// Recv waits for the next raw message. It returns io.EOF once the channel
	// was released, the transport error when the connection was severed, and
	// ctx.Err() when ctx ends first.
	Recv(ctx context.Context) (*messages.ResponseMessage, error)

	// -----------------------------------------------------------------------------

	// Close releases the routing entry. Further Recv calls return io.EOF.
	Close()
}

// -----------------------------------------------------------------------------
// IMessageBus multiplexes one gateway connection.
// -----------------------------------------------------------------------------

type IMessageBus interface {

	// SendRequest routes responses carrying requestID to a new channel, then
	// sends msg. An id that is still routed is rejected. When accept is given,
	// other message types for the id are dropped.
	SendRequest(ctx context.Context, requestID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (IResponseChannel, error)

	// -----------------------------------------------------------------------------

	// SendOrderRequest is SendRequest keyed by order id.
	SendOrderRequest(ctx context.Context, orderID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (IResponseChannel, error)

	// -----------------------------------------------------------------------------

	// SendMessage sends msg without registering a route (cancellations).
	SendMessage(ctx context.Context, msg *messages.RequestMessage) error

	// -----------------------------------------------------------------------------

	// Close shuts the connection down and severs every open channel.
	Close() error
}

// -----------------------------------------------------------------------------
// ICancelSender is what a subscription needs to send its own cancel request.
// -----------------------------------------------------------------------------

type ICancelSender interface {
	ServerVersion() int32
	SendMessage(ctx context.Context, msg *messages.RequestMessage) error
}
