package library

import (
	"fmt"
	"log/slog"
	"strings"
)

// Catalog manages books and members: uniqueness on add, removal preconditions
// and substring search.
type Catalog struct {
	store *Store
	log   *slog.Logger
}

// NewCatalog returns a Catalog operating on store.
func NewCatalog(store *Store, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, log: orDiscard(logger)}
}

// ------------------ Books ------------------

// AddBook creates a book with every copy available.
func (c *Catalog) AddBook(id, title, author string, totalCopies int) (Book, error) {
	if id == "" {
		return Book{}, fmt.Errorf("book id is empty: %w", ErrInvalidInput)
	}
	if totalCopies < 0 {
		return Book{}, fmt.Errorf("book %q: negative copy count %d: %w", id, totalCopies, ErrInvalidInput)
	}
	if _, ok := c.store.book(id); ok {
		return Book{}, fmt.Errorf("book %q: %w", id, ErrConflict)
	}
	b := &Book{ID: id, Title: title, Author: author, TotalCopies: totalCopies, AvailableCopies: totalCopies}
	c.store.books = append(c.store.books, b)
	c.log.Debug("book added", "book_id", id, "copies", totalCopies)
	return *b, nil
}

// BookUpdate carries the fields to change. Empty strings and a zero
// TotalCopies mean "keep the current value".
type BookUpdate struct {
	Title       string
	Author      string
	TotalCopies int
}

// UpdateBook applies u to the book. A new total below the number of copies
// currently lent out is rejected and nothing is changed.
func (c *Catalog) UpdateBook(id string, u BookUpdate) (Book, error) {
	b, ok := c.store.book(id)
	if !ok {
		return Book{}, fmt.Errorf("book %q: %w", id, ErrNotFound)
	}
	if u.TotalCopies < 0 {
		return *b, fmt.Errorf("book %q: negative copy count %d: %w", id, u.TotalCopies, ErrInvalidInput)
	}
	lentOut := b.LentOut()
	if u.TotalCopies > 0 && u.TotalCopies < lentOut {
		c.log.Debug("copy reduction rejected", "book_id", id, "requested", u.TotalCopies, "lent_out", lentOut)
		return *b, fmt.Errorf("book %q: cannot set total copies to %d, %d currently lent out: %w",
			id, u.TotalCopies, lentOut, ErrInvalidState)
	}

	if u.Title != "" {
		b.Title = u.Title
	}
	if u.Author != "" {
		b.Author = u.Author
	}
	if u.TotalCopies > 0 {
		b.TotalCopies = u.TotalCopies
		b.AvailableCopies = u.TotalCopies - lentOut
	}
	return *b, nil
}

// RemoveBook deletes a book that has no copies on loan.
func (c *Catalog) RemoveBook(id string) error {
	b, ok := c.store.book(id)
	if !ok {
		return fmt.Errorf("book %q: %w", id, ErrNotFound)
	}
	if n := b.LentOut(); n > 0 {
		return fmt.Errorf("book %q: %d copies currently lent out: %w", id, n, ErrInvalidState)
	}
	c.store.deleteBook(id)
	c.log.Debug("book removed", "book_id", id)
	return nil
}

// GetBook looks a book up by id.
func (c *Catalog) GetBook(id string) (Book, error) {
	b, ok := c.store.book(id)
	if !ok {
		return Book{}, fmt.Errorf("book %q: %w", id, ErrNotFound)
	}
	return *b, nil
}

// SearchBooks returns the books whose id, title or author contains keyword,
// ignoring case, in catalog order.
func (c *Catalog) SearchBooks(keyword string) []Book {
	q := strings.ToLower(keyword)
	out := []Book{}
	for _, b := range c.store.books {
		if containsFold(b.ID, q) || containsFold(b.Title, q) || containsFold(b.Author, q) {
			out = append(out, *b)
		}
	}
	return out
}

// ListBooks returns every book in catalog order.
func (c *Catalog) ListBooks() []Book {
	out := make([]Book, 0, len(c.store.books))
	for _, b := range c.store.books {
		out = append(out, *b)
	}
	return out
}

// ------------------ Members ------------------

// AddMember registers a member. Name and email are stored as given.
func (c *Catalog) AddMember(id, name, email string) (Member, error) {
	if id == "" {
		return Member{}, fmt.Errorf("member id is empty: %w", ErrInvalidInput)
	}
	if _, ok := c.store.member(id); ok {
		return Member{}, fmt.Errorf("member %q: %w", id, ErrConflict)
	}
	m := &Member{ID: id, Name: name, Email: email}
	c.store.members = append(c.store.members, m)
	c.log.Debug("member added", "member_id", id)
	return *m, nil
}

// RemoveMember deletes a member with no outstanding loans. Returned loans
// stay in the history.
func (c *Catalog) RemoveMember(id string) error {
	if _, ok := c.store.member(id); !ok {
		return fmt.Errorf("member %q: %w", id, ErrNotFound)
	}
	n := c.store.outstandingLoans(func(l *Loan) bool { return l.MemberID == id })
	if n > 0 {
		return fmt.Errorf("member %q: %d outstanding loans: %w", id, n, ErrInvalidState)
	}
	c.store.deleteMember(id)
	c.log.Debug("member removed", "member_id", id)
	return nil
}

// GetMember looks a member up by id.
func (c *Catalog) GetMember(id string) (Member, error) {
	m, ok := c.store.member(id)
	if !ok {
		return Member{}, fmt.Errorf("member %q: %w", id, ErrNotFound)
	}
	return *m, nil
}

// SearchMembers returns the members whose id or name contains keyword,
// ignoring case, in registration order.
func (c *Catalog) SearchMembers(keyword string) []Member {
	q := strings.ToLower(keyword)
	out := []Member{}
	for _, m := range c.store.members {
		if containsFold(m.ID, q) || containsFold(m.Name, q) {
			out = append(out, *m)
		}
	}
	return out
}

// ListMembers returns every member in registration order.
func (c *Catalog) ListMembers() []Member {
	out := make([]Member, 0, len(c.store.members))
	for _, m := range c.store.members {
		out = append(out, *m)
	}
	return out
}

// containsFold expects lowerQ to be lower-cased already.
func containsFold(s, lowerQ string) bool {
	return strings.Contains(strings.ToLower(s), lowerQ)
}
