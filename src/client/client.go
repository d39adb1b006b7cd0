package client

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/interfaces"
	"gateway-stream/src/logger"
	"gateway-stream/src/messages"
	"gateway-stream/src/metrics"
	"gateway-stream/src/models"
	"gateway-stream/src/network"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/versions"
)

// firstRequestID is where request ids start; lower ids are left to callers
// that manage their own.
const firstRequestID = 9000

// Client is a connected gateway session. The server version is fixed when the
// client is created and is read concurrently by every subscription.
type Client struct {
	bus           interfaces.IMessageBus
	serverVersion int32
	requestID     atomic.Int32
	logger        *logger.Logger
	metrics       *metrics.Collector
}

type Option func(*Client)

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// New wraps an existing bus.
func New(bus interfaces.IMessageBus, serverVersion int32, opts ...Option) *Client {
	c := &Client{bus: bus, serverVersion: serverVersion}
	c.requestID.Store(firstRequestID)
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewNopLogger("client")
	}
	return c
}

// Connect dials the gateway described by cfg.
func Connect(ctx context.Context, cfg *models.MConfig, log *logger.Logger, opts ...Option) (*Client, error) {
	dial := network.DialConfig{
		Host:           cfg.Gateway.Host,
		Port:           cfg.Gateway.Port,
		ClientID:       cfg.Gateway.ClientID,
		ConnectTimeout: time.Duration(cfg.Gateway.ConnectTimeout) * time.Second,
		Retries:        cfg.Gateway.MaxRetries,
		ChannelBuffer:  cfg.Gateway.ChannelBuffer,
	}
	bus, err := network.Connect(ctx, dial, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to gateway at %s: %w", dial.Address(), err)
	}
	opts = append([]Option{WithLogger(log)}, opts...)
	return New(bus, bus.ServerVersion(), opts...), nil
}

// -----------------------------------------------------------------------------

func (c *Client) ServerVersion() int32 {
	return c.serverVersion
}

// NextRequestID allocates a fresh request id.
func (c *Client) NextRequestID() int32 {
	return c.requestID.Add(1) - 1
}

func (c *Client) SendMessage(ctx context.Context, msg *messages.RequestMessage) error {
	return c.bus.SendMessage(ctx, msg)
}

func (c *Client) SendRequest(ctx context.Context, requestID int32, msg *messages.RequestMessage, accept ...messages.IncomingMessages) (interfaces.IResponseChannel, error) {
	return c.bus.SendRequest(ctx, requestID, msg, accept...)
}

func (c *Client) Logger() *logger.Logger {
	return c.logger
}

// RequireVersion fails when the negotiated version predates feature.
func (c *Client) RequireVersion(threshold int32, feature string) error {
	if !versions.Supports(c.serverVersion, threshold) {
		return helpers.NewEncodingError("server version %d does not support %s (needs %d)", c.serverVersion, feature, threshold)
	}
	return nil
}

func (c *Client) Close() error {
	return c.bus.Close()
}

func (c *Client) subscriptionOptions() []subscriptions.Option {
	return []subscriptions.Option{
		subscriptions.WithLogger(c.logger.Named("subscription")),
		subscriptions.WithMetrics(c.metrics),
	}
}

// -----------------------------------------------------------------------------
// Subscribing
// -----------------------------------------------------------------------------

// Subscribe sends msg under requestID and wraps the response channel. Only the
// message types the decoder lists are routed to it.
func Subscribe[T any](
	ctx context.Context,
	c *Client,
	requestID int32,
	msg *messages.RequestMessage,
	decoder subscriptions.StreamDecoder[T],
	responseCtx subscriptions.ResponseContext,
) (*subscriptions.Subscription[T], error) {
	ch, err := c.bus.SendRequest(ctx, requestID, msg, decoder.ResponseMessageIDs()...)
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", msg.Type(), err)
	}
	return subscriptions.NewSubscription(ch, c, decoder, subscriptions.RequestIdentity(requestID), responseCtx,
		c.subscriptionOptions()...), nil
}

// SubscribeSync is Subscribe for the blocking form.
func SubscribeSync[T any](
	ctx context.Context,
	c *Client,
	requestID int32,
	msg *messages.RequestMessage,
	decoder subscriptions.StreamDecoder[T],
	responseCtx subscriptions.ResponseContext,
) (*subscriptions.SyncSubscription[T], error) {
	ch, err := c.bus.SendRequest(ctx, requestID, msg, decoder.ResponseMessageIDs()...)
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", msg.Type(), err)
	}
	return subscriptions.NewSyncSubscription(ch, c, decoder, subscriptions.RequestIdentity(requestID), responseCtx,
		c.subscriptionOptions()...), nil
}
