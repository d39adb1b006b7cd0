package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
	"gateway-stream/src/versions"
)

const apiPrefix = "API\x00"

// ErrUnsupportedServer is returned when the gateway is older than the client
// supports.
var ErrUnsupportedServer = errors.New("unsupported server version")

// ServerInfo is what the gateway reported during the handshake.
type ServerInfo struct {
	ServerVersion  int32
	ConnectionTime string
}

// Handshake negotiates the protocol version and starts the API session. The
// deadline of ctx, if any, applies to the whole exchange.
func Handshake(ctx context.Context, conn net.Conn, reader *bufio.Reader, clientID int32) (ServerInfo, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return ServerInfo{}, helpers.NewConnectionError(err, "setting handshake deadline")
		}
		defer conn.SetDeadline(time.Time{})
	}

	if _, err := conn.Write([]byte(apiPrefix)); err != nil {
		return ServerInfo{}, helpers.NewConnectionError(err, "writing API prefix")
	}
	versionRange := fmt.Sprintf("v%d..%d", versions.MinClientVersion, versions.MaxClientVersion)
	if err := WriteFrame(conn, []byte(versionRange)); err != nil {
		return ServerInfo{}, helpers.NewConnectionError(err, "writing version range")
	}

	payload, err := ReadFrame(reader)
	if err != nil {
		return ServerInfo{}, helpers.NewConnectionError(err, "reading server version")
	}
	reply := messages.ParseResponse(payload)
	if reply.Len() < 2 {
		return ServerInfo{}, helpers.NewConnectionError(nil, "malformed handshake reply %q", reply.String())
	}

	version, err := strconv.ParseInt(reply.Peek(0), 10, 32)
	if err != nil {
		return ServerInfo{}, helpers.NewConnectionError(err, "invalid server version %q", reply.Peek(0))
	}
	info := ServerInfo{ServerVersion: int32(version), ConnectionTime: reply.Peek(1)}

	if info.ServerVersion < versions.MinClientVersion {
		return info, helpers.NewConnectionError(ErrUnsupportedServer, "server version %d is below the supported minimum %d",
			info.ServerVersion, versions.MinClientVersion)
	}

	startAPI := messages.NewRequestMessage(messages.StartApi).Push(2, clientID, "")
	if err := WriteFrame(conn, startAPI.Encode()); err != nil {
		return info, helpers.NewConnectionError(err, "sending start API")
	}

	return info, nil
}
