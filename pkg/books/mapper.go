package books

import (
	"fmt"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// DecodeBooks extracts the books list from a response whose root field is
// "books". A null or absent root field decodes to an empty list.
func DecodeBooks(resp *graphql.Response) ([]Book, error) {
	var root struct {
		Books []Book `json:"books"`
	}
	if err := resp.DecodeData(&root); err != nil {
		return nil, fmt.Errorf("decoding books: %w", err)
	}
	return root.Books, nil
}

// DecodeBook extracts a single book from a response whose root field is
// "book". A null or absent root field returns (nil, nil): "no book with that
// id" is an explicit absence, not a failure.
func DecodeBook(resp *graphql.Response) (*Book, error) {
	var root struct {
		Book *Book `json:"book"`
	}
	if err := resp.DecodeData(&root); err != nil {
		return nil, fmt.Errorf("decoding book: %w", err)
	}
	return root.Book, nil
}

// DecodeCreatedBook extracts the book from a createBook mutation response.
// Returns (nil, nil) when the mutation produced no book.
func DecodeCreatedBook(resp *graphql.Response) (*Book, error) {
	var root struct {
		CreateBook struct {
			Book *Book `json:"book"`
		} `json:"createBook"`
	}
	if err := resp.DecodeData(&root); err != nil {
		return nil, fmt.Errorf("decoding created book: %w", err)
	}
	return root.CreateBook.Book, nil
}

// DecodeAddedBook extracts the book from one bookAdded subscription event
// payload. The payload here is the data sub-field a session yields, not the
// full envelope.
func DecodeAddedBook(data []byte) (*Book, error) {
	resp := &graphql.Response{Data: data}
	var root struct {
		BookAdded *Book `json:"bookAdded"`
	}
	if err := resp.DecodeData(&root); err != nil {
		return nil, fmt.Errorf("decoding bookAdded event: %w", err)
	}
	return root.BookAdded, nil
}
