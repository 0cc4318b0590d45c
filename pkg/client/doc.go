// Package client composes the gqlwire components into the operations an
// application calls: Execute, ExecuteCached, ExecuteWithRetry, ExecuteBatch,
// and Subscribe.
//
// The facade never changes the kind of an error it surfaces: transport
// failures arrive as *graphql.TransportError, semantic GraphQL failures from
// the retry path as *graphql.ExecutionError, and so on.
//
// Concurrent ExecuteCached calls for the same fingerprint are not coalesced;
// on a miss race each caller issues its own transport call and the last
// write wins. Single-flight coalescing keyed by the fingerprint would be a
// strictly stronger design and is a candidate improvement.
package client
