package network

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("88\x009000\x00")))

	assert.Equal(t, []byte{0, 0, 0, 8}, buf.Bytes()[:4])

	payload, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "88\x009000\x00", string(payload))

	_, err = ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(header))
	var parseErr *helpers.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

// -----------------------------------------------------------------------------
// Handshake
// -----------------------------------------------------------------------------

func TestHandshake(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	gw := newFakeGateway(t, server)
	startAPI := make(chan []string, 1)
	go func() { startAPI <- gw.acceptHandshake("176") }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info, err := Handshake(ctx, client, bufio.NewReader(client), 7)
	require.NoError(t, err)

	assert.Equal(t, int32(176), info.ServerVersion)
	assert.Equal(t, "20240102 09:30:00 EST", info.ConnectionTime)
	assert.Equal(t, []string{"71", "2", "7", ""}, <-startAPI)
}

func TestHandshakeRejectsOldServer(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		reader := bufio.NewReader(server)
		prefix := make([]byte, len(apiPrefix))
		if _, err := io.ReadFull(reader, prefix); err != nil {
			return
		}
		if _, err := ReadFrame(reader); err != nil {
			return
		}
		_ = WriteFrame(server, []byte("99\x00now\x00"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info, err := Handshake(ctx, client, bufio.NewReader(client), 7)
	assert.ErrorIs(t, err, ErrUnsupportedServer)
	assert.Equal(t, int32(99), info.ServerVersion)
}

// -----------------------------------------------------------------------------
// Message bus
// -----------------------------------------------------------------------------

func newTestBus(t *testing.T, serverVersion int32) (*MessageBus, *fakeGateway) {
	client, server := net.Pipe()
	gw := newFakeGateway(t, server)
	gw.serve()

	bus := NewMessageBus(client, nil, ServerInfo{ServerVersion: serverVersion}, 8, nil)
	bus.Start()
	t.Cleanup(func() {
		bus.Close()
		server.Close()
	})
	return bus, gw
}

func recvWithin(t *testing.T, ch interface {
	Recv(context.Context) (*messages.ResponseMessage, error)
}) (*messages.ResponseMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return ch.Recv(ctx)
}

func TestBusRoutesByRequestID(t *testing.T) {
	bus, gw := newTestBus(t, 196)
	ctx := context.Background()

	req := messages.NewRequestMessage(messages.RequestHeadTimestamp).Push(9000)
	ch, err := bus.SendRequest(ctx, 9000, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"87", "9000"}, <-gw.received)

	gw.send("88|9001|1681135200")
	gw.send("88|9000|1681135200")

	msg, err := recvWithin(t, ch)
	require.NoError(t, err)
	id, ok := msg.RequestID(196)
	require.True(t, ok)
	assert.Equal(t, int32(9000), id)
	assert.Equal(t, messages.HeadTimestamp, msg.MessageType())
}

func TestBusRoutesHistoricalDataByVersion(t *testing.T) {
	// below 124 message 17 carries a version field before the request id
	bus, gw := newTestBus(t, 110)

	ch, err := bus.SendRequest(context.Background(), 12, messages.NewRequestMessage(messages.RequestHistoricalData))
	require.NoError(t, err)
	<-gw.received

	gw.send("17|3|12|20230101|20230102|0")
	msg, err := recvWithin(t, ch)
	require.NoError(t, err)
	assert.Equal(t, "17|3|12|20230101|20230102|0", msg.String())
}

func TestBusRejectsDuplicateRequestID(t *testing.T) {
	bus, gw := newTestBus(t, 196)
	ctx := context.Background()

	ch, err := bus.SendRequest(ctx, 1, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	_, err = bus.SendRequest(ctx, 1, messages.NewRequestMessage(messages.RequestHistogramData))
	assert.ErrorIs(t, err, helpers.ErrDuplicateRequestID)

	ch.Close()
	assert.Zero(t, bus.Routes())

	_, err = bus.SendRequest(ctx, 1, messages.NewRequestMessage(messages.RequestHistogramData))
	assert.NoError(t, err)
}

func TestSlowRouteDoesNotStallOthers(t *testing.T) {
	bus, gw := newTestBus(t, 196)
	ctx := context.Background()

	slow, err := bus.SendRequest(ctx, 1, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received
	fast, err := bus.SendRequest(ctx, 2, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	// more than the initial queue capacity, none read yet
	const backlog = 20
	for i := 0; i < backlog; i++ {
		gw.send(fmt.Sprintf("89|1|1|%d|5", 100+i))
	}
	gw.send("89|2|1|200|5")

	msg, err := recvWithin(t, fast)
	require.NoError(t, err)
	assert.Equal(t, "89|2|1|200|5", msg.String())

	for i := 0; i < backlog; i++ {
		msg, err := recvWithin(t, slow)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("89|1|1|%d|5", 100+i), msg.String())
	}
}

func TestBusDropsMessageTypesRouteDidNotAccept(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	ch, err := bus.SendRequest(context.Background(), 7, messages.NewRequestMessage(messages.RequestHistogramData),
		messages.HistogramData, messages.Error)
	require.NoError(t, err)
	<-gw.received

	gw.send("88|7|1681135200")
	gw.send("89|7|1|100|5")
	gw.send("4|7|200|No security definition")

	msg, err := recvWithin(t, ch)
	require.NoError(t, err)
	assert.Equal(t, messages.HistogramData, msg.MessageType())

	msg, err = recvWithin(t, ch)
	require.NoError(t, err)
	assert.Equal(t, messages.Error, msg.MessageType())
}

func TestReleasedChannelReturnsEOF(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	ch, err := bus.SendRequest(context.Background(), 5, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	ch.Close()
	ch.Close()
	_, err = ch.Recv(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecvHonoursContext(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	ch, err := bus.SendRequest(context.Background(), 5, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = ch.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusRoutesOrderMessages(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	ch, err := bus.SendOrderRequest(context.Background(), 55, messages.NewRequestMessage(messages.OutgoingMessages(3)).Push(55))
	require.NoError(t, err)
	<-gw.received

	gw.send("3|55|Submitted|0|100")
	gw.send("4|55|201|Order rejected")

	msg, err := recvWithin(t, ch)
	require.NoError(t, err)
	assert.Equal(t, messages.OrderStatus, msg.MessageType())

	msg, err = recvWithin(t, ch)
	require.NoError(t, err)
	assert.Equal(t, messages.Error, msg.MessageType())
}

func TestBusCapturesSessionMessages(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	gw.send("4|-1|2104|Market data farm connection is OK:usfarm")
	gw.send("15|1|DU111,DU222")
	gw.send("9|1|42")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.WaitReady(ctx))

	assert.Equal(t, int32(42), bus.NextValidID())
	assert.Equal(t, []string{"DU111", "DU222"}, bus.ManagedAccounts())
}

func TestBusSeversChannelsWhenConnectionDrops(t *testing.T) {
	client, server := net.Pipe()
	gw := newFakeGateway(t, server)
	gw.serve()
	bus := NewMessageBus(client, nil, ServerInfo{ServerVersion: 196}, 8, nil)
	bus.Start()

	ch, err := bus.SendRequest(context.Background(), 8, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	gw.send("89|8|1|100.5|20")
	server.Close()

	msg, err := recvWithin(t, ch)
	require.NoError(t, err, "queued messages are delivered before the failure")
	assert.Equal(t, messages.HistogramData, msg.MessageType())

	_, err = recvWithin(t, ch)
	assert.ErrorIs(t, err, helpers.ErrConnectionReset)

	<-bus.Done()
	var connErr *helpers.ConnectionError
	assert.ErrorAs(t, bus.Err(), &connErr)

	err = bus.SendMessage(context.Background(), messages.NewRequestMessage(messages.CancelHistogramData))
	assert.ErrorIs(t, err, helpers.ErrShutdown)
	assert.NoError(t, bus.Close())
}

func TestBusCloseSeversWithShutdown(t *testing.T) {
	bus, gw := newTestBus(t, 196)

	ch, err := bus.SendRequest(context.Background(), 8, messages.NewRequestMessage(messages.RequestHistogramData))
	require.NoError(t, err)
	<-gw.received

	require.NoError(t, bus.Close())
	_, err = recvWithin(t, ch)
	assert.ErrorIs(t, err, helpers.ErrShutdown)
	assert.NoError(t, bus.Err())

	_, err = bus.SendRequest(context.Background(), 9, messages.NewRequestMessage(messages.RequestHistogramData))
	assert.ErrorIs(t, err, helpers.ErrShutdown)
}

// -----------------------------------------------------------------------------
// Connect
// -----------------------------------------------------------------------------

func TestConnect(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	startAPI := make(chan []string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		gw := newFakeGateway(t, conn)
		startAPI <- gw.acceptHandshake("196")
		gw.send("15|1|DU999")
		gw.send("9|1|1")
		gw.serve()
	}()

	addr := listener.Addr().(*net.TCPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := Connect(ctx, DialConfig{
		Host:           "127.0.0.1",
		Port:           addr.Port,
		ClientID:       100,
		ConnectTimeout: 2 * time.Second,
		Retries:        2,
	}, nil)
	require.NoError(t, err)
	defer bus.Close()

	assert.Equal(t, int32(196), bus.ServerVersion())
	assert.Equal(t, []string{"71", "2", "100", ""}, <-startAPI)
	assert.Equal(t, int32(1), bus.NextValidID())
}

func TestConnectGivesUpAfterRetries(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = Connect(ctx, DialConfig{Host: "127.0.0.1", Port: port, ConnectTimeout: time.Second, Retries: 2}, nil)

	var connErr *helpers.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}
