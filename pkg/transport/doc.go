// Package transport sends GraphQL requests over HTTP and decodes the
// response envelope.
//
// The transport's only job is moving bytes: a non-2xx status, connection
// failure, or malformed body becomes a *graphql.TransportError, but a
// well-formed envelope is returned as-is even when its errors list is
// non-empty. Interpreting GraphQL errors is the caller's concern.
package transport
