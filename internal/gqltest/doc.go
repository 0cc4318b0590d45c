// Package gqltest provides a scripted GraphQL endpoint for tests: an
// httptest-backed HTTP handler for query/mutation/batch traffic and a
// graphql-ws WebSocket handler for subscription traffic.
//
// Tests enqueue envelopes or raw status replies for the HTTP side and set a
// Script for the WebSocket side; the server then replays them and records
// what the client sent.
package gqltest
