package books

// Author is a typed view of an author node.
type Author struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
	// Books is the author's books when the query selected them, nil when
	// the field was absent from the selection or null in the response.
	Books []Book `json:"books"`
}

// Book is a typed view of a book node.
type Book struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear"`
	// Author is nil when the query did not select the author or the
	// response carried null for it.
	Author *Author `json:"author"`
}
