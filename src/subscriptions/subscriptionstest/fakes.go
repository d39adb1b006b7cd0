// Package subscriptionstest provides in-memory stand-ins for the message bus
// pieces a subscription depends on.
package subscriptionstest

import (
	"context"
	"io"
	"sync"

	"gateway-stream/src/interfaces"
	"gateway-stream/src/messages"
)

// -----------------------------------------------------------------------------
// Channel
// -----------------------------------------------------------------------------

// Channel is a scripted response channel.
type Channel struct {
	msgs chan *messages.ResponseMessage

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	err    error
	closes int
}

func NewChannel(buffer int) *Channel {
	return &Channel{
		msgs: make(chan *messages.ResponseMessage, buffer),
		done: make(chan struct{}),
	}
}

// NewChannelWith returns a channel preloaded with "|" separated messages.
func NewChannelWith(simple ...string) *Channel {
	c := NewChannel(len(simple) + 8)
	for _, s := range simple {
		c.Push(s)
	}
	return c
}

// Push queues a "|" separated message.
func (c *Channel) Push(simple string) {
	c.msgs <- messages.FromSimple(simple)
}

// Sever makes pending and future Recv calls fail with err once the queue is
// drained.
func (c *Channel) Sever(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	close(c.done)
}

func (c *Channel) Recv(ctx context.Context) (*messages.ResponseMessage, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	default:
	}
	select {
	case m := <-c.msgs:
		return m, nil
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.err != nil {
			return nil, c.err
		}
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Channel) Close() {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.Sever(nil)
}

// Closes is how many times Close was called.
func (c *Channel) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// -----------------------------------------------------------------------------
// Sender
// -----------------------------------------------------------------------------

// Sender records every message sent through it.
type Sender struct {
	Version int32
	// Err, when set, is returned by SendMessage after recording.
	Err error

	mu   sync.Mutex
	sent []*messages.RequestMessage
	cond chan struct{}
}

func NewSender(version int32) *Sender {
	return &Sender{Version: version, cond: make(chan struct{}, 64)}
}

func (s *Sender) ServerVersion() int32 {
	return s.Version
}

func (s *Sender) SendMessage(_ context.Context, msg *messages.RequestMessage) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	select {
	case s.cond <- struct{}{}:
	default:
	}
	return s.Err
}

// Sent returns the recorded messages in "|" form.
func (s *Sender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.String()
	}
	return out
}

// Count is the number of recorded messages.
func (s *Sender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// Wait blocks until a message was recorded or ctx ends.
func (s *Sender) Wait(ctx context.Context) bool {
	if s.Count() > 0 {
		return true
	}
	select {
	case <-s.cond:
		return true
	case <-ctx.Done():
		return s.Count() > 0
	}
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus is an in-memory message bus. Every routed request gets a Channel that
// tests feed with Push.
type Bus struct {
	*Sender

	// SendErr, when set, fails SendRequest and SendOrderRequest.
	SendErr error

	mu       sync.Mutex
	channels map[int32]*Channel
	accepts  map[int32][]messages.IncomingMessages
	requests []*messages.RequestMessage
	closed   bool
}

func NewBus(version int32) *Bus {
	return &Bus{
		Sender:   NewSender(version),
		channels: make(map[int32]*Channel),
		accepts:  make(map[int32][]messages.IncomingMessages),
	}
}

func (b *Bus) SendRequest(_ context.Context, requestID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	return b.route(requestID, msg, accept)
}

func (b *Bus) SendOrderRequest(_ context.Context, orderID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	return b.route(orderID, msg, accept)
}

func (b *Bus) route(id int32, msg *messages.RequestMessage, accept []messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	if b.SendErr != nil {
		return nil, b.SendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := NewChannel(64)
	b.channels[id] = ch
	b.accepts[id] = accept
	b.requests = append(b.requests, msg)
	return ch, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Channel returns the channel routed for id, nil if none.
func (b *Bus) Channel(id int32) *Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channels[id]
}

// Accepts returns the message types requested for id.
func (b *Bus) Accepts(id int32) []messages.IncomingMessages {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accepts[id]
}

// Requests returns the routed requests in "|" form.
func (b *Bus) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	for i, m := range b.requests {
		out[i] = m.String()
	}
	return out
}

func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
