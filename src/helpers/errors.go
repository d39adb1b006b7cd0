package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds for errors.As
type EncodingError struct{ GatewayError }
type ParseError struct{ GatewayError }
type ConnectionError struct{ GatewayError }
type ConfigurationError struct{ GatewayError }

func NewEncodingError(format string, args ...interface{}) error {
	return &EncodingError{GatewayError{Message: fmt.Sprintf(format, args...)}}
}

func NewParseError(cause error, format string, args ...interface{}) error {
	return &ParseError{GatewayError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewConnectionError(cause error, format string, args ...interface{}) error {
	return &ConnectionError{GatewayError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{GatewayError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Stream signals
// -----------------------------------------------------------------------------

var (
	// ErrEndOfStream is returned by decoders when the server signalled completion.
	ErrEndOfStream = errors.New("end of stream")

	ErrNotImplemented     = errors.New("not implemented")
	ErrConnectionReset    = errors.New("connection reset by gateway")
	ErrCloneUnsupported   = errors.New("subscription backed by a pre-decoded channel cannot be cloned")
	ErrDuplicateRequestID = errors.New("request id is still routed to an open stream")
	ErrShutdown           = errors.New("message bus is shut down")
	ErrSubscriptionClosed = errors.New("subscription is closed")
)

// UnexpectedResponseError marks a message whose shape does not match what the
// active decoder handles. Subscriptions skip it and wait for the next one.
type UnexpectedResponseError struct {
	MessageType int32
	Fields      []string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response message %d: [%s]", e.MessageType, strings.Join(e.Fields, ","))
}

// ServerError is an Error record the gateway sent for a specific request.
type ServerError struct {
	RequestID int32
	Code      int32
	Message   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("gateway error %d for request %d: %s", e.Code, e.RequestID, e.Message)
}

// IsUnexpectedResponse reports whether err is a shape mismatch.
func IsUnexpectedResponse(err error) bool {
	var target *UnexpectedResponseError
	return errors.As(err, &target)
}
