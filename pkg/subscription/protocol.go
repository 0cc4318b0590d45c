package subscription

import "encoding/json"

// Subprotocol is the negotiated WebSocket sub-protocol.
const Subprotocol = "graphql-ws"

// Wire message types for the graphql-ws protocol.
const (
	msgTypeConnectionInit = "connection_init"
	msgTypeConnectionAck  = "connection_ack"
	msgTypeStart          = "start"
	msgTypeData           = "data"
	msgTypeError          = "error"
	msgTypeComplete       = "complete"
	msgTypeStop           = "stop"
)

// message is a graphql-ws frame. All frames are JSON text.
type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// startPayload is the payload of a start frame.
type startPayload struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// dataPayload is the payload of a data frame. Only the data sub-field is
// yielded to the caller, not the full envelope.
type dataPayload struct {
	Data json.RawMessage `json:"data"`
}

// State is a subscription session state.
type State int

// Session states in lifecycle order.
const (
	StateIdle State = iota
	StateConnecting
	StateAckPending
	StateActive
	StateComplete
	StateFailed
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAckPending:
		return "ack-pending"
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is terminal. The underlying connection
// is always released on entry to a terminal state.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateClosed
}
