package relay

import "time"

type MessageType string

const (
	MsgTrace MessageType = "trace"
	MsgState MessageType = "state"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// TracePayload mirrors one received datagram. Text is the payload as
// received.
type TracePayload struct {
	Seq  uint64    `json:"seq"`
	From string    `json:"from"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// StatePayload summarises the session for newly connected clients and on
// every change.
type StatePayload struct {
	Probes   string `json:"probes"`
	Running  int    `json:"running"`
	Listener string `json:"listener"`
	Selected int    `json:"selected"`
}
