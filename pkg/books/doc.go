// Package books maps raw GraphQL response envelopes onto typed Book and
// Author entities and offers a typed client for the common book-store
// operations.
//
// Entities are views reconstructed per call from a response. They carry no
// identity of their own and no mutation path back to the server; never treat
// them as a local cache of server state. Wire field names (publishedYear,
// birthYear) are mapped to Go fields by a fixed one-to-one translation, and
// unrecognized wire fields are ignored for forward compatibility. A missing
// cross-reference decodes to an explicit nil, never silently to a zero
// entity.
package books
