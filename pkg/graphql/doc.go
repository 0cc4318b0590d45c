// Package graphql defines the wire-level types shared by every layer of the
// client: the request/response envelope, the GraphQL error shape, and the
// error taxonomy the transport, cache, retry, and subscription layers use to
// tell failure classes apart.
//
// The envelope is deliberately dual-shaped: a response may carry data, errors,
// or both at once (partial success). Nothing in this package collapses that
// shape; callers decide how to treat a partial result.
package graphql
