package messages

import (
	"gateway-stream/src/helpers"
	"gateway-stream/src/versions"
)

// DecodeServerError reads an Error record into a *helpers.ServerError.
// The leading version field exists only below versions.ErrorTime.
func DecodeServerError(serverVersion int32, msg *ResponseMessage) error {
	msg.Rewind()
	if err := msg.Skip(); err != nil {
		return err
	}
	if serverVersion < versions.ErrorTime {
		if err := msg.Skip(); err != nil {
			return err
		}
	}
	id, err := msg.NextInt()
	if err != nil {
		return err
	}
	code, err := msg.NextInt()
	if err != nil {
		return err
	}
	text, err := msg.NextString()
	if err != nil {
		return err
	}
	return &helpers.ServerError{RequestID: id, Code: code, Message: text}
}
