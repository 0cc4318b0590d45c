// Package cache provides deterministic fingerprinting of GraphQL requests
// and a bounded least-recently-used store for response envelopes.
//
// A fingerprint is derived from the document text plus a canonical JSON
// rendering of the variables, so two requests that differ only in variable
// insertion order share a key. The store caches full envelopes as-is,
// GraphQL errors included; transport-level failures are never stored.
package cache
