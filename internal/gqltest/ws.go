package gqltest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// Script controls how the WebSocket side behaves.
type Script struct {
	// AckFrameType is the frame type sent in reply to connection_init.
	// Empty means connection_ack; anything else lets tests provoke a
	// protocol violation during the handshake.
	AckFrameType string
	// StallHandshake suppresses any reply to connection_init, so handshake
	// deadlines can be exercised.
	StallHandshake bool
	// Events are sent as data frames, in order, after a start frame.
	Events []interface{}
	// EventDelay spaces out the data frames.
	EventDelay time.Duration
	// Errors, when non-empty, is sent as an error frame after the events
	// instead of complete.
	Errors []graphql.Error
	// TrailingFrameType, when set, is sent after the events in place of
	// complete/error (for violation tests in the active state).
	TrailingFrameType string
	// OmitComplete leaves the stream open after the events.
	OmitComplete bool
}

// wsMessage mirrors the graphql-ws frame shape.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsHandler replays a Script over the graphql-ws protocol.
type wsHandler struct {
	mu           sync.Mutex
	script       Script
	stopReceived atomic.Bool
}

func newWSHandler() *wsHandler {
	return &wsHandler{}
}

func (h *wsHandler) setScript(script Script) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.script = script
}

func (h *wsHandler) getScript() Script {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.script
}

// ServeHTTP upgrades the request and walks the scripted exchange.
func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{"graphql-ws"},
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	ctx := r.Context()
	script := h.getScript()

	// Handshake: expect connection_init.
	msg, err := h.read(ctx, conn)
	if err != nil || msg.Type != "connection_init" {
		return
	}
	if script.StallHandshake {
		<-ctx.Done()
		return
	}
	ackType := script.AckFrameType
	if ackType == "" {
		ackType = "connection_ack"
	}
	if err := h.send(ctx, conn, &wsMessage{Type: ackType}); err != nil {
		return
	}

	// Expect start, then replay the script.
	msg, err = h.read(ctx, conn)
	if err != nil {
		return
	}
	if msg.Type == "stop" {
		h.stopReceived.Store(true)
		return
	}
	if msg.Type != "start" {
		return
	}
	id := msg.ID

	// Drain further client frames (stop) concurrently.
	go func() {
		for {
			m, err := h.read(ctx, conn)
			if err != nil {
				return
			}
			if m.Type == "stop" {
				h.stopReceived.Store(true)
				return
			}
		}
	}()

	for _, event := range script.Events {
		if script.EventDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(script.EventDelay):
			}
		}
		payload, _ := json.Marshal(map[string]interface{}{"data": event})
		if err := h.send(ctx, conn, &wsMessage{ID: id, Type: "data", Payload: payload}); err != nil {
			return
		}
	}

	switch {
	case len(script.Errors) > 0:
		payload, _ := json.Marshal(script.Errors)
		_ = h.send(ctx, conn, &wsMessage{ID: id, Type: "error", Payload: payload})
	case script.TrailingFrameType != "":
		_ = h.send(ctx, conn, &wsMessage{ID: id, Type: script.TrailingFrameType})
	case script.OmitComplete:
		<-ctx.Done()
	default:
		_ = h.send(ctx, conn, &wsMessage{ID: id, Type: "complete"})
	}

	// Give the client a moment to read the tail frames before the deferred
	// close tears the connection down.
	select {
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
	}
}

func (h *wsHandler) read(ctx context.Context, conn *websocket.Conn) (*wsMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (h *wsHandler) send(ctx context.Context, conn *websocket.Conn, msg *wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
