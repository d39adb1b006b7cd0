package server

import (
	"time"

	"gateway-stream/src/models"
)

// -----------------------------------------------------------------------------

// asRelayMessage returns a private copy of payload, stamped with the current
// time when it has none.
func asRelayMessage(payload interface{}) (*models.MRelayMessage, bool) {
	var m models.MRelayMessage
	switch v := payload.(type) {
	case models.MRelayMessage:
		m = v
	case *models.MRelayMessage:
		if v == nil {
			return nil, false
		}
		m = *v
	default:
		return nil, false
	}

	if m.Stream == "" {
		return nil, false
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	return &m, true
}
