package network

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGateway is the server side of a connection. Frames the client writes
// are collected on received.
type fakeGateway struct {
	t        *testing.T
	conn     net.Conn
	reader   *bufio.Reader
	received chan []string
}

func newFakeGateway(t *testing.T, conn net.Conn) *fakeGateway {
	return &fakeGateway{
		t:        t,
		conn:     conn,
		reader:   bufio.NewReader(conn),
		received: make(chan []string, 64),
	}
}

// acceptHandshake plays the server side of Handshake and returns the start
// API fields.
func (g *fakeGateway) acceptHandshake(serverVersion string) []string {
	prefix := make([]byte, len(apiPrefix))
	_, err := io.ReadFull(g.reader, prefix)
	require.NoError(g.t, err)
	require.Equal(g.t, apiPrefix, string(prefix))

	versionRange, err := ReadFrame(g.reader)
	require.NoError(g.t, err)
	require.Equal(g.t, "v100..196", string(versionRange))

	require.NoError(g.t, WriteFrame(g.conn, []byte(serverVersion+"\x0020240102 09:30:00 EST\x00")))

	startAPI, err := ReadFrame(g.reader)
	require.NoError(g.t, err)
	return splitFields(startAPI)
}

// serve collects client frames until the connection closes.
func (g *fakeGateway) serve() {
	go func() {
		defer close(g.received)
		for {
			payload, err := ReadFrame(g.reader)
			if err != nil {
				return
			}
			g.received <- splitFields(payload)
		}
	}()
}

// send writes one message given as "|" separated fields.
func (g *fakeGateway) send(simple string) {
	payload := strings.ReplaceAll(simple, "|", "\x00") + "\x00"
	require.NoError(g.t, WriteFrame(g.conn, []byte(payload)))
}

func splitFields(payload []byte) []string {
	s := strings.TrimSuffix(string(payload), "\x00")
	return strings.Split(s, "\x00")
}
