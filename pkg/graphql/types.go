package graphql

import (
	"encoding/json"
	"net/http"
)

// Request represents a single GraphQL operation to execute.
// The query document is treated as an opaque string; this package never
// parses it.
type Request struct {
	// Query is the GraphQL document (query, mutation, or subscription),
	// optionally with named fragments inlined.
	Query string `json:"query"`
	// OperationName selects the operation in multi-operation documents.
	OperationName string `json:"operationName,omitempty"`
	// Variables are the variable values for the operation.
	Variables map[string]interface{} `json:"variables,omitempty"`
	// Header carries per-request headers merged over the client defaults.
	// Not serialized into the request body.
	Header http.Header `json:"-"`
}

// NewRequest creates a request for the given document and variables.
func NewRequest(query string, variables map[string]interface{}) *Request {
	return &Request{Query: query, Variables: variables}
}

// Response is the standard GraphQL response envelope.
// Data and Errors may both be present (partial success).
type Response struct {
	// Data contains the result of the operation, if any.
	Data json.RawMessage `json:"data,omitempty"`
	// Errors contains any errors that occurred during execution,
	// in server order.
	Errors []Error `json:"errors,omitempty"`
	// Extensions contains additional response metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// HasErrors reports whether the envelope carries at least one GraphQL error.
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// DecodeData unmarshals the data field into v. It is a no-op when the
// response carries no data, so callers can decode partial results without
// special-casing the error path.
func (r *Response) DecodeData(v interface{}) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Error represents a GraphQL error in the response format.
type Error struct {
	// Message is the error message.
	Message string `json:"message"`
	// Locations indicates where in the query the error occurred.
	Locations []ErrorLocation `json:"locations,omitempty"`
	// Path is the response field path where the error occurred.
	Path []interface{} `json:"path,omitempty"`
	// Extensions contains additional error metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return "graphql: " + e.Message
}

// ErrorLocation represents a location in the GraphQL document where an error
// occurred. Line and Column are 1-indexed.
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}
