package books

// Reusable fragment definitions for book-store queries.
const (
	// BookDetailsFragment selects the scalar fields of a Book.
	BookDetailsFragment = `fragment BookDetails on Book {
  id
  title
  genre
  publishedYear
}`

	// AuthorDetailsFragment selects the scalar fields of an Author.
	AuthorDetailsFragment = `fragment AuthorDetails on Author {
  id
  name
  birthYear
}`
)

// Operation documents used by TypedClient.
const (
	allBooksQuery = `query GetAllBooks {
  books {
    id
    title
    genre
    publishedYear
    author {
      id
      name
      birthYear
    }
  }
}`

	bookByIDQuery = `query GetBook($bookId: Int!) {
  book(id: $bookId) {
    id
    title
    genre
    publishedYear
    author {
      id
      name
      birthYear
    }
  }
}`

	createBookMutation = `mutation CreateBook($title: String!, $authorId: Int!, $genre: String!, $publishedYear: Int!) {
  createBook(title: $title, authorId: $authorId, genre: $genre, publishedYear: $publishedYear) {
    book {
      id
      title
      genre
      publishedYear
      author {
        id
        name
        birthYear
      }
    }
  }
}`

	bookAddedSubscription = `subscription {
  bookAdded {
    id
    title
    genre
    publishedYear
    author {
      id
      name
      birthYear
    }
  }
}`
)

// BooksWithAuthorsQuery builds the all-books query from the shared
// fragments instead of an inline selection.
func BooksWithAuthorsQuery() string {
	return BookDetailsFragment + "\n\n" + AuthorDetailsFragment + `

query GetBooksWithAuthors {
  books {
    ...BookDetails
    author {
      ...AuthorDetails
    }
  }
}`
}
