package subscriptions

import (
	"errors"
	"fmt"

	"gateway-stream/src/helpers"
	"gateway-stream/src/messages"
)

// -----------------------------------------------------------------------------
// Response context and identity
// -----------------------------------------------------------------------------

// ResponseContext describes how a response stream is interpreted. It is copied
// into each subscription and never changed afterwards.
type ResponseContext struct {
	// RequestType is the request that opened the stream.
	RequestType messages.OutgoingMessages
	// IsSmartDepth distinguishes smart depth from plain depth feeds.
	IsSmartDepth bool
}

type identityKind uint8

const (
	identityNone identityKind = iota
	identityRequest
	identityOrder
)

// Identity is the request id or order id a stream is multiplexed by.
type Identity struct {
	id   int32
	kind identityKind
}

func RequestIdentity(id int32) Identity {
	return Identity{id: id, kind: identityRequest}
}

func OrderIdentity(id int32) Identity {
	return Identity{id: id, kind: identityOrder}
}

func (i Identity) RequestID() (int32, bool) {
	return i.id, i.kind == identityRequest
}

func (i Identity) OrderID() (int32, bool) {
	return i.id, i.kind == identityOrder
}

// Value returns whichever id is set.
func (i Identity) Value() (int32, bool) {
	return i.id, i.kind != identityNone
}

func (i Identity) String() string {
	switch i.kind {
	case identityRequest:
		return fmt.Sprintf("request:%d", i.id)
	case identityOrder:
		return fmt.Sprintf("order:%d", i.id)
	default:
		return "none"
	}
}

// -----------------------------------------------------------------------------
// StreamDecoder
// -----------------------------------------------------------------------------

// StreamDecoder is implemented once per response family and shared by the
// async and sync subscription forms.
type StreamDecoder[T any] interface {
	// ResponseMessageIDs lists the incoming message types the family decodes.
	// The bus drops other types carrying the same id; empty accepts all.
	ResponseMessageIDs() []messages.IncomingMessages

	// Decode consumes one raw message positionally. Fields the negotiated
	// version does not guarantee must not be read.
	Decode(serverVersion int32, msg *messages.ResponseMessage) (T, error)

	// CancelMessage builds the request that stops this stream.
	CancelMessage(serverVersion int32, id Identity, ctx ResponseContext) (*messages.RequestMessage, error)

	// IsSnapshotEnd reports a synthetic terminal value; the stream closes
	// after yielding it.
	IsSnapshotEnd(value T) bool
}

// DecoderDefaults supplies the optional parts of StreamDecoder. Families embed
// it and override what they support.
type DecoderDefaults[T any] struct{}

func (DecoderDefaults[T]) ResponseMessageIDs() []messages.IncomingMessages {
	return nil
}

func (DecoderDefaults[T]) CancelMessage(int32, Identity, ResponseContext) (*messages.RequestMessage, error) {
	return nil, helpers.ErrNotImplemented
}

func (DecoderDefaults[T]) IsSnapshotEnd(T) bool {
	return false
}

// -----------------------------------------------------------------------------
// Error classification
// -----------------------------------------------------------------------------

type ResultKind int

const (
	Success ResultKind = iota
	Retry
	EndOfStream
	Error
	// interrupted is a pull abandoned because the caller's context ended.
	// It never comes out of ProcessDecodeResult.
	interrupted
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case EndOfStream:
		return "end_of_stream"
	case Error:
		return "error"
	default:
		return "interrupted"
	}
}

// ProcessingResult is the classified outcome of one decode.
type ProcessingResult[T any] struct {
	Kind  ResultKind
	Value T
	Err   error
	// Final marks a snapshot-end value: yield it, then close.
	Final bool
}

// ProcessDecodeResult classifies a decode outcome. Shape mismatches retry,
// ErrEndOfStream ends the stream, anything else is fatal.
func ProcessDecodeResult[T any](value T, err error) ProcessingResult[T] {
	switch {
	case err == nil:
		return ProcessingResult[T]{Kind: Success, Value: value}
	case IsStreamEnd(err):
		return ProcessingResult[T]{Kind: EndOfStream}
	case ShouldRetryError(err):
		return ProcessingResult[T]{Kind: Retry}
	default:
		return ProcessingResult[T]{Kind: Error, Err: err}
	}
}

// ShouldRetryError reports whether the message should be skipped.
func ShouldRetryError(err error) bool {
	return helpers.IsUnexpectedResponse(err)
}

// IsStreamEnd reports the normal end signal.
func IsStreamEnd(err error) bool {
	return errors.Is(err, helpers.ErrEndOfStream)
}

// ShouldStoreError reports whether err must be surfaced to the caller.
func ShouldStoreError(err error) bool {
	return err != nil && !IsStreamEnd(err)
}

// RequireRequestID returns the request id, or an EncodingError for streams
// keyed by order id.
func (i Identity) RequireRequestID() (int32, error) {
	if i.kind != identityRequest {
		return 0, helpers.NewEncodingError("cancel needs a request id, stream is keyed by %s", i)
	}
	return i.id, nil
}
