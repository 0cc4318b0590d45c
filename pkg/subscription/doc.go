// Package subscription implements the client side of GraphQL subscriptions
// over the graphql-ws WebSocket sub-protocol.
//
// A Session owns exactly one WebSocket connection for its lifetime and drives
// an explicit state machine:
//
//	Idle → Connecting → AckPending → Active → (Complete | Failed) → Closed
//
// Dial performs the handshake (connection_init / connection_ack) and
// Subscribe starts a single subscription, yielding each inbound event's data
// payload on an ordered channel. The stream is single-use and forward-only;
// a new subscription requires a new Session. The underlying connection is
// released on every path into a terminal state, including abrupt disconnect
// and caller cancellation.
package subscription
