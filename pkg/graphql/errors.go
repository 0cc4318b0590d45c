package graphql

import (
	"fmt"
	"strings"
)

// TransportError indicates the request never produced a well-formed GraphQL
// envelope: connection failure, non-2xx status, or a malformed body. It is
// the only error class the retry layer treats as retryable.
type TransportError struct {
	// URL is the endpoint the request was sent to.
	URL string
	// StatusCode is the HTTP status, or 0 when the failure happened before
	// a status was received (DNS, refused connection, malformed frame).
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("transport: %s returned status %d: %v", e.URL, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("transport: %s returned status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transport: %s: request failed", e.URL)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// ExecutionError indicates the server returned a well-formed envelope whose
// errors list is non-empty. It is never retried automatically; a semantic
// server-side error is not expected to resolve by repetition.
type ExecutionError struct {
	// Errors is the full ordered error list from the envelope.
	Errors []Error
	// Response is the complete envelope, so partial data stays observable
	// alongside the errors.
	Response *Response
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if len(e.Errors) == 0 {
		return "graphql: execution failed"
	}
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return fmt.Sprintf("graphql: execution failed with %d error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// PartialData reports whether the envelope carried data alongside the errors.
func (e *ExecutionError) PartialData() bool {
	return e.Response != nil && len(e.Response.Data) > 0
}

// ProtocolViolationError indicates a subscription session received a message
// type that is invalid for its current state. Fatal to that session only.
type ProtocolViolationError struct {
	// State is the session state when the message arrived.
	State string
	// MessageType is the offending wire message type.
	MessageType string
}

// Error implements the error interface.
func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("subscription: unexpected message type %q in state %s", e.MessageType, e.State)
}

// EncodingError indicates variables could not be serialized to their
// canonical JSON form. This is a programming error at the call site.
type EncodingError struct {
	Err error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("graphql: variables not serializable: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *EncodingError) Unwrap() error { return e.Err }
