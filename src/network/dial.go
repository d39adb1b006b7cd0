package network

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/logger"

	"github.com/cenkalti/backoff/v5"
)

// DialConfig holds the connection settings.
type DialConfig struct {
	Host           string
	Port           int
	ClientID       int32
	ConnectTimeout time.Duration
	Retries        int
	ChannelBuffer  int
}

func (c DialConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type session struct {
	conn   net.Conn
	reader *bufio.Reader
	info   ServerInfo
}

// Connect dials the gateway, performs the handshake and starts a bus. Dial
// and handshake failures are retried with exponential backoff; a server that
// is too old is not retried.
func Connect(ctx context.Context, cfg DialConfig, log *logger.Logger) (*MessageBus, error) {
	if log == nil {
		log = logger.NewNopLogger("network")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s, err := helpers.RetryWithBackoff(ctx, "gateway connect", cfg.Retries, 500*time.Millisecond, log, func() (session, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		dialer := net.Dialer{}
		conn, err := dialer.DialContext(attemptCtx, "tcp", cfg.Address())
		if err != nil {
			return session{}, helpers.NewConnectionError(err, "dialing %s", cfg.Address())
		}

		reader := bufio.NewReader(conn)
		info, err := Handshake(attemptCtx, conn, reader, cfg.ClientID)
		if err != nil {
			conn.Close()
			if errors.Is(err, ErrUnsupportedServer) {
				return session{}, backoff.Permanent(err)
			}
			return session{}, err
		}
		return session{conn: conn, reader: reader, info: info}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Connected to %s (server version %d, connection time %s)", cfg.Address(), s.info.ServerVersion, s.info.ConnectionTime)

	bus := NewMessageBus(s.conn, s.reader, s.info, cfg.ChannelBuffer, log.Named("bus"))
	bus.Start()

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := bus.WaitReady(readyCtx); err != nil {
		if errors.Is(err, helpers.ErrShutdown) {
			if busErr := bus.Err(); busErr != nil {
				return nil, busErr
			}
			return nil, err
		}
		log.Warning("No order id received from gateway: %v", err)
	}
	return bus, nil
}
