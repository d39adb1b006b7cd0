package subscriptions

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"gateway-stream/src/interfaces"
)

// SyncSubscription is the blocking form of Subscription. Next waits without a
// deadline; the error that ended the stream is kept for Err.
//
//	for bar := range sub.Iter() {
//		...
//	}
//	if err := sub.Err(); err != nil { ... }
type SyncSubscription[T any] struct {
	s *stream[T]

	mu  sync.Mutex
	err error
}

func NewSyncSubscription[T any](
	ch interfaces.IResponseChannel,
	sender interfaces.ICancelSender,
	decoder StreamDecoder[T],
	identity Identity,
	responseCtx ResponseContext,
	opts ...Option,
) *SyncSubscription[T] {
	return &SyncSubscription[T]{s: newStream(ch, sender, decoder, identity, responseCtx, opts)}
}

func NewSyncPreDecoded[T any](source <-chan Result[T], opts ...Option) *SyncSubscription[T] {
	return &SyncSubscription[T]{s: newPreDecodedStream(source, opts)}
}

// Next blocks for the next value. It reports false at the end of the stream
// or on a fatal error, which Err then returns.
func (sub *SyncSubscription[T]) Next() (T, bool) {
	v, err := sub.s.next(context.Background())
	if err != nil {
		if !errors.Is(err, io.EOF) {
			sub.mu.Lock()
			sub.err = err
			sub.mu.Unlock()
		}
		var zero T
		return zero, false
	}
	return v, true
}

// Iter yields values until Next reports false. Breaking out of the loop does
// not cancel the subscription.
func (sub *SyncSubscription[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := sub.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Err returns the fatal error that ended the stream, if any.
func (sub *SyncSubscription[T]) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *SyncSubscription[T]) Cancel() {
	sub.s.cancel(context.Background())
}

func (sub *SyncSubscription[T]) Close() {
	sub.s.close()
}

func (sub *SyncSubscription[T]) Clone() (*SyncSubscription[T], error) {
	c, err := sub.s.clone()
	if err != nil {
		return nil, err
	}
	return &SyncSubscription[T]{s: c}, nil
}

func (sub *SyncSubscription[T]) State() State {
	return sub.s.currentState()
}

func (sub *SyncSubscription[T]) RequestID() (int32, bool) {
	return sub.s.identity.RequestID()
}

func (sub *SyncSubscription[T]) OrderID() (int32, bool) {
	return sub.s.identity.OrderID()
}

func (sub *SyncSubscription[T]) ResponseContext() ResponseContext {
	return sub.s.context
}
