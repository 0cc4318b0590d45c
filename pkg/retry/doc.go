// Package retry wraps transport calls with bounded retry on transport-level
// failures, using exponential backoff with jitter between attempts.
//
// Only *graphql.TransportError is retried. A well-formed envelope carrying
// GraphQL errors is a semantic failure and is surfaced immediately; repeating
// the call is not expected to change the outcome.
package retry
