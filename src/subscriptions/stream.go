package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"gateway-stream/src/helpers"
	"gateway-stream/src/interfaces"
	"gateway-stream/src/logger"
	"gateway-stream/src/messages"
	"gateway-stream/src/metrics"

	"github.com/google/uuid"
)

// State is the lifecycle of a subscription.
type State int32

const (
	Active State = iota
	// Draining means a cancel is being sent; no new values are produced.
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Draining:
		return "draining"
	default:
		return "closed"
	}
}

// dropCancelTimeout bounds the cancel request issued from Close.
const dropCancelTimeout = 5 * time.Second

// Result is one item of a pre-decoded source.
type Result[T any] struct {
	Value T
	Err   error
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

type options struct {
	logger  *logger.Logger
	metrics *metrics.Collector
}

type Option func(*options)

// WithLogger sets the logger used for cancel and decode diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records decode outcomes and cancels on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNopLogger("subscription")
	}
	return o
}

// -----------------------------------------------------------------------------
// sharedChannel
// -----------------------------------------------------------------------------

// sharedChannel is a response channel referenced by a subscription and its
// clones. The route is released when the last reference goes.
type sharedChannel struct {
	ch      interfaces.IResponseChannel
	refs    atomic.Int32
	family  string
	metrics *metrics.Collector
}

func newSharedChannel(ch interfaces.IResponseChannel, family string, m *metrics.Collector) *sharedChannel {
	c := &sharedChannel{ch: ch, family: family, metrics: m}
	c.refs.Store(1)
	m.SubscriptionOpened(family)
	return c
}

func (c *sharedChannel) retain() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *sharedChannel) release() {
	if c.refs.Add(-1) == 0 {
		c.ch.Close()
		c.metrics.SubscriptionClosed(c.family)
	}
}

// -----------------------------------------------------------------------------
// stream
// -----------------------------------------------------------------------------

// stream is the state shared by the async and sync forms. Clones share the
// channel, the cancel flag and the lifecycle state; each handle releases its
// own channel reference.
type stream[T any] struct {
	channel    *sharedChannel
	preDecoded <-chan Result[T]

	decoder  StreamDecoder[T]
	sender   interfaces.ICancelSender
	identity Identity
	context  ResponseContext

	cancelled *atomic.Bool
	state     *atomic.Int32
	released  atomic.Bool

	serverVersion int32
	family        string
	opts          options
	logger        *logger.Logger
}

func newStream[T any](
	ch interfaces.IResponseChannel,
	sender interfaces.ICancelSender,
	decoder StreamDecoder[T],
	identity Identity,
	responseCtx ResponseContext,
	opts []Option,
) *stream[T] {
	o := buildOptions(opts)
	family := responseCtx.RequestType.String()
	s := &stream[T]{
		channel:   newSharedChannel(ch, family, o.metrics),
		decoder:   decoder,
		sender:    sender,
		identity:  identity,
		context:   responseCtx,
		cancelled: &atomic.Bool{},
		state:     &atomic.Int32{},
		family:    family,
		opts:      o,
	}
	if sender != nil {
		s.serverVersion = sender.ServerVersion()
	}
	s.logger = o.logger.With("subscription", uuid.NewString(), "family", family, "id", identity.String())
	return s
}

func newPreDecodedStream[T any](source <-chan Result[T], opts []Option) *stream[T] {
	o := buildOptions(opts)
	return &stream[T]{
		preDecoded: source,
		cancelled:  &atomic.Bool{},
		state:      &atomic.Int32{},
		family:     "pre_decoded",
		opts:       o,
		logger:     o.logger.With("subscription", uuid.NewString(), "family", "pre_decoded"),
	}
}

func (s *stream[T]) currentState() State {
	return State(s.state.Load())
}

// next produces the following value. io.EOF reports the end of the stream; a
// fatal error is reported once and the stream is closed afterwards. When ctx
// ends first its error is returned and the stream stays usable.
func (s *stream[T]) next(ctx context.Context) (T, error) {
	var zero T
	if s.currentState() != Active {
		return zero, io.EOF
	}

	if s.preDecoded != nil {
		select {
		case item, ok := <-s.preDecoded:
			if !ok {
				s.finish()
				return zero, io.EOF
			}
			return item.Value, item.Err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	result := nextResult(ctx, s.channel.ch, s.serverVersion, s.decoder, s.observe)
	switch result.Kind {
	case Success:
		if result.Final {
			s.finish()
		}
		return result.Value, nil
	case EndOfStream:
		s.finish()
		return zero, io.EOF
	case interrupted:
		return zero, result.Err
	default:
		s.logger.Error("stream failed: %v", result.Err)
		s.finish()
		return zero, result.Err
	}
}

// nextResult pulls raw messages until one decodes to a value, an end signal or
// a fatal error. Messages classified as Retry are skipped.
func nextResult[T any](
	ctx context.Context,
	ch interfaces.IResponseChannel,
	serverVersion int32,
	decoder StreamDecoder[T],
	observe func(outcome string),
) ProcessingResult[T] {
	for {
		msg, err := ch.Recv(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return ProcessingResult[T]{Kind: EndOfStream}
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				return ProcessingResult[T]{Kind: interrupted, Err: err}
			default:
				observe(metrics.OutcomeError)
				return ProcessingResult[T]{Kind: Error, Err: err}
			}
		}

		result := ProcessDecodeResult(safeDecode(decoder, serverVersion, msg))
		switch result.Kind {
		case Success:
			result.Final = decoder.IsSnapshotEnd(result.Value)
			observe(metrics.OutcomeValue)
			return result
		case Retry:
			observe(metrics.OutcomeRetry)
			continue
		case EndOfStream:
			observe(metrics.OutcomeEnd)
			return result
		default:
			observe(metrics.OutcomeError)
			return result
		}
	}
}

func safeDecode[T any](decoder StreamDecoder[T], serverVersion int32, msg *messages.ResponseMessage) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = helpers.NewParseError(fmt.Errorf("%v", r), "decoder panicked on %s message", msg.MessageType())
		}
	}()
	return decoder.Decode(serverVersion, msg)
}

func (s *stream[T]) observe(outcome string) {
	s.opts.metrics.ObserveDecode(s.family, outcome)
}

// finish closes the stream after its natural end or a fatal error. No cancel
// request is sent afterwards.
func (s *stream[T]) finish() {
	s.cancelled.Store(true)
	s.state.Store(int32(Closed))
	s.release()
}

func (s *stream[T]) release() {
	if s.channel == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	s.channel.release()
}

// -----------------------------------------------------------------------------
// Cancellation
// -----------------------------------------------------------------------------

// cancelMessage builds the cancel request, reporting false when the family has
// none or it cannot be built.
func (s *stream[T]) cancelMessage() (*messages.RequestMessage, bool) {
	if s.sender == nil || s.decoder == nil {
		return nil, false
	}
	msg, err := s.decoder.CancelMessage(s.serverVersion, s.identity, s.context)
	if err != nil {
		if errors.Is(err, helpers.ErrNotImplemented) {
			s.logger.Debug("no cancel request for this family")
			s.opts.metrics.ObserveCancel(s.family, metrics.CancelUnsupported)
		} else {
			s.logger.Warning("building cancel request: %v", err)
			s.opts.metrics.ObserveCancel(s.family, metrics.CancelFailed)
		}
		return nil, false
	}
	return msg, true
}

func (s *stream[T]) sendCancel(ctx context.Context, msg *messages.RequestMessage) {
	if err := s.sender.SendMessage(ctx, msg); err != nil {
		s.logger.Warning("sending cancel request %s: %v", msg, err)
		s.opts.metrics.ObserveCancel(s.family, metrics.CancelFailed)
		return
	}
	s.logger.Debug("cancel request sent: %s", msg)
	s.opts.metrics.ObserveCancel(s.family, metrics.CancelSent)
}

// cancel sends the cancel request at most once across all clones. Failures
// are logged, never returned.
func (s *stream[T]) cancel(ctx context.Context) {
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.state.Store(int32(Draining))
	if msg, ok := s.cancelMessage(); ok {
		s.sendCancel(ctx, msg)
	}
	s.state.Store(int32(Closed))
}

// close cancels without waiting for the send, then drops this handle's
// channel reference.
func (s *stream[T]) close() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.state.Store(int32(Draining))
		if msg, ok := s.cancelMessage(); ok {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), dropCancelTimeout)
				defer cancel()
				s.sendCancel(ctx, msg)
			}()
		}
		s.state.Store(int32(Closed))
	}
	s.release()
}

// clone returns a handle sharing the channel, cancel flag and state.
func (s *stream[T]) clone() (*stream[T], error) {
	if s.preDecoded != nil {
		return nil, helpers.ErrCloneUnsupported
	}
	if s.released.Load() || !s.channel.retain() {
		return nil, helpers.ErrSubscriptionClosed
	}
	return &stream[T]{
		channel:       s.channel,
		decoder:       s.decoder,
		sender:        s.sender,
		identity:      s.identity,
		context:       s.context,
		cancelled:     s.cancelled,
		state:         s.state,
		serverVersion: s.serverVersion,
		family:        s.family,
		opts:          s.opts,
		logger:        s.logger,
	}, nil
}
