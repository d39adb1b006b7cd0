// Package accounts streams account scoped feeds.
package accounts

import (
	"gateway-stream/src/messages"
)

const positionsMultiVersion = 1

// EncodeRequestPositionsMulti asks for positions of account, optionally
// restricted to modelCode. Empty strings mean "all".
func EncodeRequestPositionsMulti(requestID int32, account string, modelCode string) (*messages.RequestMessage, error) {
	return messages.NewRequestMessage(messages.RequestPositionsMulti).
		Push(positionsMultiVersion, requestID, account, modelCode), nil
}

func EncodeCancelPositionsMulti(requestID int32) (*messages.RequestMessage, error) {
	return messages.NewRequestMessage(messages.CancelPositionsMulti).Push(positionsMultiVersion, requestID), nil
}
