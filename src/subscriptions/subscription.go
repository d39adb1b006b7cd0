package subscriptions

import (
	"context"

	"gateway-stream/src/interfaces"
)

// Subscription is a typed, cancellable stream of decoded responses for one
// request. Next suspends until a value arrives or ctx ends.
//
//	sub, err := svc.HistoricalData(ctx, contract, req)
//	if err != nil { ... }
//	defer sub.Close()
//	for {
//		v, err := sub.Next(ctx)
//		if errors.Is(err, io.EOF) { break }
//		...
//	}
type Subscription[T any] struct {
	s *stream[T]
}

// NewSubscription wraps a routed response channel. sender is used for the
// cancel request and supplies the negotiated server version.
func NewSubscription[T any](
	ch interfaces.IResponseChannel,
	sender interfaces.ICancelSender,
	decoder StreamDecoder[T],
	identity Identity,
	responseCtx ResponseContext,
	opts ...Option,
) *Subscription[T] {
	return &Subscription[T]{s: newStream(ch, sender, decoder, identity, responseCtx, opts)}
}

// NewPreDecoded wraps a channel of values that were already decoded
// elsewhere. It has no decoder, no cancel request and cannot be cloned.
func NewPreDecoded[T any](source <-chan Result[T], opts ...Option) *Subscription[T] {
	return &Subscription[T]{s: newPreDecodedStream(source, opts)}
}

// Next returns the next value. It returns io.EOF once the stream ended or was
// cancelled. A fatal error is returned once, then io.EOF. If ctx ends first,
// ctx.Err() is returned and the subscription remains active.
func (sub *Subscription[T]) Next(ctx context.Context) (T, error) {
	return sub.s.next(ctx)
}

// Cancel sends the cancel request if none was sent yet by this subscription
// or any clone. Send failures are logged.
func (sub *Subscription[T]) Cancel(ctx context.Context) {
	sub.s.cancel(ctx)
}

// Close cancels in the background and releases this handle's hold on the
// response channel. It is safe to call more than once.
func (sub *Subscription[T]) Close() {
	sub.s.close()
}

// Clone returns an independent handle on the same stream. Cancelling either
// one cancels both.
func (sub *Subscription[T]) Clone() (*Subscription[T], error) {
	c, err := sub.s.clone()
	if err != nil {
		return nil, err
	}
	return &Subscription[T]{s: c}, nil
}

func (sub *Subscription[T]) State() State {
	return sub.s.currentState()
}

func (sub *Subscription[T]) RequestID() (int32, bool) {
	return sub.s.identity.RequestID()
}

func (sub *Subscription[T]) OrderID() (int32, bool) {
	return sub.s.identity.OrderID()
}

func (sub *Subscription[T]) ResponseContext() ResponseContext {
	return sub.s.context
}
