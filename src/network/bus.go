package network

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"gateway-stream/src/helpers"
	"gateway-stream/src/interfaces"
	"gateway-stream/src/logger"
	"gateway-stream/src/messages"

	"golang.org/x/sync/errgroup"
)

// DefaultChannelBuffer is the initial capacity of a per-request queue. Queues
// grow as needed.
const DefaultChannelBuffer = 64

type writeRequest struct {
	payload []byte
	done    chan error
}

// MessageBus multiplexes one gateway connection. A reader goroutine routes
// inbound messages by request id or order id; a writer goroutine serializes
// outbound frames.
type MessageBus struct {
	conn   net.Conn
	reader *bufio.Reader
	info   ServerInfo
	buffer int
	log    *logger.Logger

	mu     sync.RWMutex
	routes map[int32]*responseChannel
	orders map[int32]*responseChannel

	outbound chan writeRequest
	cancel   context.CancelFunc
	done     chan struct{}
	shutdown atomic.Bool
	err      error

	nextValidID atomic.Int32
	ready       chan struct{}
	readyOnce   sync.Once
	accountsMu  sync.Mutex
	accounts    []string
}

// NewMessageBus wraps a connection that already completed the handshake.
// reader must be the buffered reader used for the handshake, if any.
func NewMessageBus(conn net.Conn, reader *bufio.Reader, info ServerInfo, buffer int, log *logger.Logger) *MessageBus {
	if reader == nil {
		reader = bufio.NewReader(conn)
	}
	if buffer <= 0 {
		buffer = DefaultChannelBuffer
	}
	if log == nil {
		log = logger.NewNopLogger("bus")
	}
	return &MessageBus{
		conn:     conn,
		reader:   reader,
		info:     info,
		buffer:   buffer,
		log:      log,
		routes:   make(map[int32]*responseChannel),
		orders:   make(map[int32]*responseChannel),
		outbound: make(chan writeRequest),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start launches the reader and writer. The bus runs until Close is called or
// the connection fails.
func (b *MessageBus) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return b.readLoop(gctx) })
	group.Go(func() error { return b.writeLoop(gctx) })
	group.Go(func() error {
		<-gctx.Done()
		return b.conn.Close()
	})

	go func() {
		err := group.Wait()
		b.teardown(err)
	}()
}

// Close shuts the connection down and severs every open channel with
// helpers.ErrShutdown.
func (b *MessageBus) Close() error {
	if !b.shutdown.CompareAndSwap(false, true) {
		<-b.done
		return nil
	}
	if b.cancel == nil {
		b.teardown(nil)
		return b.conn.Close()
	}
	b.cancel()
	<-b.done
	return nil
}

// Done is closed once the bus stopped.
func (b *MessageBus) Done() <-chan struct{} {
	return b.done
}

// Err reports why the bus stopped, nil after a clean Close.
func (b *MessageBus) Err() error {
	select {
	case <-b.done:
		return b.err
	default:
		return nil
	}
}

func (b *MessageBus) teardown(err error) {
	severWith := helpers.ErrConnectionReset
	if b.shutdown.Load() {
		severWith = helpers.ErrShutdown
		err = nil
	} else if err != nil {
		b.log.Error("Gateway connection lost: %v", err)
	}
	b.err = err

	b.mu.Lock()
	b.shutdown.Store(true)
	routes, orders := b.routes, b.orders
	b.routes = make(map[int32]*responseChannel)
	b.orders = make(map[int32]*responseChannel)
	b.mu.Unlock()

	for _, ch := range routes {
		ch.sever(severWith)
	}
	for _, ch := range orders {
		ch.sever(severWith)
	}
	close(b.done)
}

// -----------------------------------------------------------------------------
// Loops
// -----------------------------------------------------------------------------

func (b *MessageBus) readLoop(ctx context.Context) error {
	for {
		payload, err := ReadFrame(b.reader)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return helpers.NewConnectionError(err, "reading from gateway")
		}
		b.dispatch(messages.ParseResponse(payload))
	}
}

func (b *MessageBus) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-b.outbound:
			err := WriteFrame(b.conn, req.payload)
			req.done <- err
			if err != nil {
				return helpers.NewConnectionError(err, "writing to gateway")
			}
		}
	}
}

func (b *MessageBus) dispatch(msg *messages.ResponseMessage) {
	kind := msg.MessageType()
	switch kind {
	case messages.NextValidId:
		// 9, version, order id
		if id, ok := idField(msg, 2); ok {
			b.nextValidID.Store(id)
			b.readyOnce.Do(func() { close(b.ready) })
		}
		return
	case messages.ManagedAccounts:
		// 15, version, "A1,A2"
		b.accountsMu.Lock()
		b.accounts = splitAccounts(msg.Peek(2))
		b.accountsMu.Unlock()
		return
	}

	if id, ok := msg.RequestID(b.info.ServerVersion); ok {
		if ch := b.lookup(b.routes, id); ch != nil {
			b.deliver(ch, kind, msg)
			return
		}
		if kind == messages.Error {
			if ch := b.lookup(b.orders, id); ch != nil {
				b.deliver(ch, kind, msg)
				return
			}
			if id == -1 {
				b.log.Info("Gateway notice: %s", msg)
				return
			}
		}
	}

	if id, ok := msg.OrderID(); ok {
		if ch := b.lookup(b.orders, id); ch != nil {
			b.deliver(ch, kind, msg)
			return
		}
	}

	b.log.Debug("Unrouted %s message: %s", kind, msg)
}

// deliver drops message types the route did not ask for.
func (b *MessageBus) deliver(ch *responseChannel, kind messages.IncomingMessages, msg *messages.ResponseMessage) {
	if !ch.accepts(kind) {
		b.log.Debug("Dropping %s message for route %d: %s", kind, ch.key, msg)
		return
	}
	ch.deliver(msg)
}

func (b *MessageBus) lookup(table map[int32]*responseChannel, id int32) *responseChannel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return table[id]
}

// -----------------------------------------------------------------------------
// IMessageBus
// -----------------------------------------------------------------------------

func (b *MessageBus) SendRequest(ctx context.Context, requestID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	return b.sendRouted(ctx, requestID, false, msg, accept)
}

func (b *MessageBus) SendOrderRequest(ctx context.Context, orderID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	return b.sendRouted(ctx, orderID, true, msg, accept)
}

func (b *MessageBus) sendRouted(ctx context.Context, key int32, order bool, msg *messages.RequestMessage, accept []messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	ch := newResponseChannel(b, key, order, b.buffer, accept)
	if err := b.route(ch); err != nil {
		return nil, err
	}
	if err := b.SendMessage(ctx, msg); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

// SendMessage queues msg for the writer and waits until it was written.
func (b *MessageBus) SendMessage(ctx context.Context, msg *messages.RequestMessage) error {
	if b.shutdown.Load() {
		return helpers.ErrShutdown
	}
	req := writeRequest{payload: msg.Encode(), done: make(chan error, 1)}

	select {
	case b.outbound <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return helpers.ErrShutdown
	}

	select {
	case err := <-req.done:
		if err != nil {
			return helpers.NewConnectionError(err, "sending %s", msg.Type())
		}
		b.log.Debug("Sent %s", msg)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return helpers.ErrShutdown
	}
}

func (b *MessageBus) route(ch *responseChannel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown.Load() {
		return helpers.ErrShutdown
	}
	table := b.routes
	if ch.order {
		table = b.orders
	}
	if _, exists := table[ch.key]; exists {
		return fmt.Errorf("%w: %d", helpers.ErrDuplicateRequestID, ch.key)
	}
	table[ch.key] = ch
	return nil
}

func (b *MessageBus) unroute(ch *responseChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	table := b.routes
	if ch.order {
		table = b.orders
	}
	if table[ch.key] == ch {
		delete(table, ch.key)
	}
}

// -----------------------------------------------------------------------------
// Session info
// -----------------------------------------------------------------------------

func (b *MessageBus) ServerVersion() int32 {
	return b.info.ServerVersion
}

func (b *MessageBus) Info() ServerInfo {
	return b.info
}

// WaitReady blocks until the gateway sent its first order id.
func (b *MessageBus) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-b.done:
		return helpers.ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MessageBus) NextValidID() int32 {
	return b.nextValidID.Load()
}

func (b *MessageBus) ManagedAccounts() []string {
	b.accountsMu.Lock()
	defer b.accountsMu.Unlock()
	out := make([]string, len(b.accounts))
	copy(out, b.accounts)
	return out
}

// Routes is the number of open routing entries.
func (b *MessageBus) Routes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.routes) + len(b.orders)
}

// -----------------------------------------------------------------------------

func idField(msg *messages.ResponseMessage, index int) (int32, bool) {
	n, err := strconv.ParseInt(msg.Peek(index), 10, 32)
	return int32(n), err == nil
}

func splitAccounts(field string) []string {
	var out []string
	for _, a := range strings.Split(field, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
