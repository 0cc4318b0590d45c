package transport

import (
	"context"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// Transport executes GraphQL requests against a remote endpoint.
type Transport interface {
	// Send executes one request and returns the decoded envelope.
	// Transport-level failures are reported as *graphql.TransportError;
	// the envelope's errors list is never inspected.
	Send(ctx context.Context, req *graphql.Request) (*graphql.Response, error)

	// SendBatch executes an ordered sequence of requests as one wire-level
	// batch and returns envelopes positionally aligned with the input.
	// Requires server-side batching support. A transport-level failure
	// fails the whole batch; there are no partial results.
	SendBatch(ctx context.Context, reqs []*graphql.Request) ([]*graphql.Response, error)
}
