package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/gqlwire/gqlwire/pkg/graphql"
	"github.com/gqlwire/gqlwire/pkg/logging"
)

// Common errors for the subscription package.
var (
	// ErrAlreadySubscribed indicates Subscribe was called twice; a session
	// carries a single subscription.
	ErrAlreadySubscribed = errors.New("session already has a subscription")
	// ErrSessionTerminated indicates the session is in a terminal state.
	ErrSessionTerminated = errors.New("session terminated")
)

// writeTimeout bounds a single control-frame write.
const writeTimeout = 5 * time.Second

// Options configures a Session.
type Options struct {
	// HandshakeTimeout bounds connection establishment and the wait for
	// connection_ack. Zero means no deadline.
	HandshakeTimeout time.Duration
	// HTTPHeader carries headers for the WebSocket handshake request.
	HTTPHeader http.Header
	// HTTPClient is used for the handshake. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives session lifecycle debug logs. Defaults to a no-op.
	Logger *slog.Logger
}

// Session is a stateful graphql-ws protocol handler. It owns exactly one
// WebSocket connection and produces the events of exactly one subscription.
type Session struct {
	url  string
	conn *websocket.Conn
	log  *slog.Logger

	// ctx governs the read loop; cancel releases a blocked Read.
	ctx    context.Context
	cancel context.CancelFunc

	events    chan json.RawMessage
	closeOnce sync.Once

	mu          sync.Mutex
	state       State
	err         error
	subID       string
	subscribed  bool
	loopStarted bool
}

// Dial opens a WebSocket connection to url, negotiates the graphql-ws
// sub-protocol, and performs the connection_init / connection_ack handshake.
// On success the returned session is Active and ready for Subscribe.
//
// Any frame other than connection_ack received during the handshake is a
// protocol violation and fails the session. When opts.HandshakeTimeout is
// set, exceeding it fails the session with the timeout as cause.
func Dial(ctx context.Context, url string, opts *Options) (*Session, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	s := &Session{
		url:    url,
		log:    log,
		state:  StateConnecting,
		events: make(chan json.RawMessage),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	handshakeCtx := ctx
	if opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, opts.HandshakeTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.Dial(handshakeCtx, url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
		HTTPHeader:   opts.HTTPHeader,
		HTTPClient:   opts.HTTPClient,
	})
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		terr := &graphql.TransportError{URL: url, StatusCode: status, Err: err}
		s.setTerminal(StateFailed, terr)
		return nil, terr
	}
	s.conn = conn

	// connection_init, then wait for the ack.
	if err := s.write(handshakeCtx, &message{Type: msgTypeConnectionInit}); err != nil {
		s.terminate(StateFailed, err)
		return nil, err
	}
	s.setState(StateAckPending)

	_, data, err := conn.Read(handshakeCtx)
	if err != nil {
		terr := &graphql.TransportError{URL: url, Err: fmt.Errorf("waiting for connection_ack: %w", err)}
		s.terminate(StateFailed, terr)
		return nil, terr
	}
	var ack message
	if err := json.Unmarshal(data, &ack); err != nil {
		terr := &graphql.TransportError{URL: url, Err: fmt.Errorf("malformed frame: %w", err)}
		s.terminate(StateFailed, terr)
		return nil, terr
	}
	if ack.Type != msgTypeConnectionAck {
		verr := &graphql.ProtocolViolationError{State: StateAckPending.String(), MessageType: ack.Type}
		s.terminate(StateFailed, verr)
		return nil, verr
	}

	s.setState(StateActive)
	log.Debug("subscription session established", "url", url)
	return s, nil
}

// Subscribe sends the start frame for the given document and begins the
// event stream. Each element on the returned channel is the data sub-field
// of one inbound data frame, in server emission order. The channel closes on
// any terminal state; consult Err afterwards to distinguish graceful
// completion from failure.
//
// A session carries exactly one subscription; a second call returns
// ErrAlreadySubscribed.
func (s *Session) Subscribe(ctx context.Context, query string, variables map[string]interface{}) (<-chan json.RawMessage, error) {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	if s.state != StateActive {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrSessionTerminated, st)
	}
	s.subscribed = true
	s.subID = uuid.NewString()
	id := s.subID
	s.mu.Unlock()

	payload, err := json.Marshal(startPayload{Query: query, Variables: variables})
	if err != nil {
		eerr := &graphql.EncodingError{Err: err}
		s.terminate(StateFailed, eerr)
		return nil, eerr
	}
	if err := s.write(ctx, &message{ID: id, Type: msgTypeStart, Payload: payload}); err != nil {
		s.terminate(StateFailed, err)
		return nil, err
	}

	s.mu.Lock()
	s.loopStarted = true
	s.mu.Unlock()
	go s.readLoop(id)
	return s.events, nil
}

// readLoop consumes inbound frames until a terminal state is reached.
// It is the sole sender on s.events and closes the channel on exit.
func (s *Session) readLoop(id string) {
	defer s.closeOnce.Do(func() { close(s.events) })
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			// Close() cancels s.ctx; that path already set its state.
			if s.ctx.Err() != nil {
				return
			}
			s.terminate(StateFailed, &graphql.TransportError{URL: s.url, Err: err})
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.terminate(StateFailed, &graphql.TransportError{URL: s.url, Err: fmt.Errorf("malformed frame: %w", err)})
			return
		}

		switch msg.Type {
		case msgTypeData:
			if msg.ID != id {
				continue // not ours
			}
			var dp dataPayload
			if err := json.Unmarshal(msg.Payload, &dp); err != nil {
				s.terminate(StateFailed, &graphql.TransportError{URL: s.url, Err: fmt.Errorf("malformed data payload: %w", err)})
				return
			}
			select {
			case s.events <- dp.Data:
			case <-s.ctx.Done():
				return
			}

		case msgTypeError:
			if msg.ID != id {
				continue
			}
			s.terminate(StateFailed, &graphql.ExecutionError{Errors: decodeErrors(msg.Payload)})
			return

		case msgTypeComplete:
			if msg.ID != id {
				continue
			}
			s.log.Debug("subscription complete", "url", s.url)
			s.terminate(StateComplete, nil)
			return

		default:
			s.terminate(StateFailed, &graphql.ProtocolViolationError{State: StateActive.String(), MessageType: msg.Type})
			return
		}
	}
}

// Close cancels the subscription. A stop frame is sent when the connection
// is still usable, the connection is released, and the session becomes
// Closed. Safe to call from any state and safe to call more than once; a
// session that already reached Complete or Failed keeps that state.
func (s *Session) Close() error {
	s.mu.Lock()
	subscribed := s.subscribed
	id := s.subID
	stillOpen := !s.state.Terminal()
	s.mu.Unlock()

	if stillOpen && subscribed && s.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_ = s.write(ctx, &message{ID: id, Type: msgTypeStop})
		cancel()
	}
	s.terminate(StateClosed, nil)
	return nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal cause of the session: nil after graceful
// completion or caller close, otherwise the transport, execution, or
// protocol error that ended it.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// setState advances a non-terminal session to st.
func (s *Session) setState(st State) {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = st
	}
	s.mu.Unlock()
}

// setTerminal records the terminal state and cause. The first terminal
// transition wins; later ones are ignored.
func (s *Session) setTerminal(st State, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = st
	s.err = err
	return true
}

// terminate moves the session to a terminal state and releases every
// resource: the read loop, the event channel, and the connection. The event
// channel is closed here only when no read loop ever started; otherwise the
// loop closes it on exit, so a blocked send can never hit a closed channel.
func (s *Session) terminate(st State, err error) {
	s.setTerminal(st, err)
	s.cancel()
	s.mu.Lock()
	loopStarted := s.loopStarted
	s.mu.Unlock()
	if !loopStarted {
		s.closeOnce.Do(func() { close(s.events) })
	}
	if s.conn != nil {
		code := websocket.StatusNormalClosure
		if st == StateFailed {
			code = websocket.StatusProtocolError
		}
		_ = s.conn.Close(code, st.String())
	}
}

// write marshals and sends one frame.
func (s *Session) write(ctx context.Context, msg *message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return &graphql.EncodingError{Err: err}
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return &graphql.TransportError{URL: s.url, Err: err}
	}
	return nil
}

// decodeErrors parses an error frame payload, which servers send either as a
// list of GraphQL errors or as a single error object.
func decodeErrors(payload json.RawMessage) []graphql.Error {
	var list []graphql.Error
	if err := json.Unmarshal(payload, &list); err == nil && len(list) > 0 {
		return list
	}
	var one graphql.Error
	if err := json.Unmarshal(payload, &one); err == nil && one.Message != "" {
		return []graphql.Error{one}
	}
	return []graphql.Error{{Message: string(payload)}}
}
