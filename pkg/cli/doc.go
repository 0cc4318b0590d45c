// Package cli implements the gqlwire command-line interface: executing
// queries and mutations against a GraphQL endpoint and streaming
// subscription events to stdout.
package cli
