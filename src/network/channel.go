package network

import (
	"context"
	"io"
	"sync"

	"gateway-stream/src/messages"
)

// responseChannel receives the messages routed to one request or order id.
// Its queue is unbounded so the bus reader never waits on a slow consumer.
type responseChannel struct {
	bus   *MessageBus
	key   int32
	order bool

	// accept lists the message types delivered; empty means all.
	accept map[messages.IncomingMessages]struct{}

	mu      sync.Mutex
	queue   []*messages.ResponseMessage
	closed  bool
	pending chan struct{}

	released    chan struct{}
	releaseOnce sync.Once

	severed   chan struct{}
	severOnce sync.Once
	err       error
}

func newResponseChannel(bus *MessageBus, key int32, order bool, capacity int, accept []messages.IncomingMessages) *responseChannel {
	c := &responseChannel{
		bus:      bus,
		key:      key,
		order:    order,
		queue:    make([]*messages.ResponseMessage, 0, capacity),
		pending:  make(chan struct{}, 1),
		released: make(chan struct{}),
		severed:  make(chan struct{}),
	}
	if len(accept) > 0 {
		c.accept = make(map[messages.IncomingMessages]struct{}, len(accept))
		for _, id := range accept {
			c.accept[id] = struct{}{}
		}
	}
	return c
}

func (c *responseChannel) accepts(kind messages.IncomingMessages) bool {
	if len(c.accept) == 0 {
		return true
	}
	_, ok := c.accept[kind]
	return ok
}

func (c *responseChannel) pop() (*messages.ResponseMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, false
	}
	m := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return m, true
}

// Recv returns queued messages before reporting a severed connection. A
// released channel drops its queue and reports io.EOF.
func (c *responseChannel) Recv(ctx context.Context) (*messages.ResponseMessage, error) {
	for {
		if m, ok := c.pop(); ok {
			return m, nil
		}

		select {
		case <-c.pending:
		case <-c.released:
			return nil, io.EOF
		case <-c.severed:
			if m, ok := c.pop(); ok {
				return m, nil
			}
			return nil, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *responseChannel) Close() {
	c.releaseOnce.Do(func() {
		close(c.released)
		c.bus.unroute(c)
		c.mu.Lock()
		c.closed = true
		c.queue = nil
		c.mu.Unlock()
	})
}

// deliver queues msg without blocking. Messages for a released channel are
// dropped.
func (c *responseChannel) deliver(msg *messages.ResponseMessage) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, msg)
	c.mu.Unlock()

	select {
	case c.pending <- struct{}{}:
	default:
	}
}

func (c *responseChannel) sever(err error) {
	c.severOnce.Do(func() {
		c.err = err
		close(c.severed)
	})
}
