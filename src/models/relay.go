package models

// Relay message types
const (
	RelayInitial = "INITIAL"
	RelayUpdate  = "UPDATE"
)

// MRelayMessage is what websocket clients of the relay receive. Data holds
// the decoded value of one subscription.
type MRelayMessage struct {
	Type      string      `json:"type"`
	Stream    string      `json:"stream"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MSubscribeCommand narrows the streams a websocket client receives. No
// streams means all of them.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}
