package books

import (
	"context"
	"encoding/json"

	"github.com/gqlwire/gqlwire/pkg/client"
	"github.com/gqlwire/gqlwire/pkg/graphql"
	"github.com/gqlwire/gqlwire/pkg/subscription"
)

// TypedClient exposes the book-store operations with typed results.
type TypedClient struct {
	c *client.Client
}

// NewTypedClient wraps a configured client.
func NewTypedClient(c *client.Client) *TypedClient {
	return &TypedClient{c: c}
}

// CreateBookInput is the argument set of the createBook mutation.
type CreateBookInput struct {
	Title         string
	AuthorID      int
	Genre         string
	PublishedYear int
}

// GetAllBooks returns every book with its author.
func (tc *TypedClient) GetAllBooks(ctx context.Context) ([]Book, error) {
	resp, err := tc.execute(ctx, allBooksQuery, nil)
	if err != nil {
		return nil, err
	}
	return DecodeBooks(resp)
}

// GetBookByID returns the book with the given id, or (nil, nil) when the
// server reports no such book.
func (tc *TypedClient) GetBookByID(ctx context.Context, id int) (*Book, error) {
	resp, err := tc.execute(ctx, bookByIDQuery, map[string]interface{}{"bookId": id})
	if err != nil {
		return nil, err
	}
	return DecodeBook(resp)
}

// CreateBook creates a book and returns the server's view of it.
func (tc *TypedClient) CreateBook(ctx context.Context, in CreateBookInput) (*Book, error) {
	vars := map[string]interface{}{
		"title":         in.Title,
		"authorId":      in.AuthorID,
		"genre":         in.Genre,
		"publishedYear": in.PublishedYear,
	}
	resp, err := tc.execute(ctx, createBookMutation, vars)
	if err != nil {
		return nil, err
	}
	return DecodeCreatedBook(resp)
}

// WatchBookAdded subscribes to bookAdded events and yields each added book
// in server order. The returned channel closes when the stream ends; the
// session reports why via Err. Decode failures on an event end the stream.
func (tc *TypedClient) WatchBookAdded(ctx context.Context) (*subscription.Session, <-chan Book, error) {
	sess, raw, err := tc.c.Subscribe(ctx, bookAddedSubscription, nil)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Book)
	go func() {
		defer close(out)
		for data := range raw {
			book, err := DecodeAddedBook(data)
			if err != nil || book == nil {
				_ = sess.Close()
				return
			}
			select {
			case out <- *book:
			case <-ctx.Done():
				_ = sess.Close()
				return
			}
		}
	}()
	return sess, out, nil
}

// execute runs a typed operation. A non-empty errors list becomes an
// *graphql.ExecutionError so typed callers never see a half-decoded result,
// while partial data stays reachable through the error.
func (tc *TypedClient) execute(ctx context.Context, query string, vars map[string]interface{}) (*graphql.Response, error) {
	resp, err := tc.c.Execute(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if resp.HasErrors() {
		return nil, &graphql.ExecutionError{Errors: resp.Errors, Response: resp}
	}
	return resp, nil
}

// RawBooks decodes an arbitrary data payload that contains a books list.
// Useful for callers that executed their own query text (fragments).
func RawBooks(data json.RawMessage) ([]Book, error) {
	return DecodeBooks(&graphql.Response{Data: data})
}
