package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// Key derives the cache fingerprint for a document and its variables.
//
// Variables are serialized with encoding/json, which writes map keys in
// sorted order, so the rendering is canonical: two variable maps with equal
// contents hash identically regardless of insertion order. Nil and empty
// variables canonicalize the same way.
//
// Variables that cannot be marshaled (channels, funcs, cycles) are a
// programming error and yield a *graphql.EncodingError.
func Key(query string, variables map[string]interface{}) (string, error) {
	canonical := []byte("{}")
	if len(variables) > 0 {
		var err error
		canonical, err = json.Marshal(variables)
		if err != nil {
			return "", &graphql.EncodingError{Err: err}
		}
	}

	h := sha256.New()
	h.Write([]byte(query))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
