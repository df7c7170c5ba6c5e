package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*Catalog, *Store) {
	t.Helper()
	st := NewStore(nil)
	return NewCatalog(st, nil), st
}

func TestAddBook(t *testing.T) {
	c, _ := newCatalog(t)
	b, err := c.AddBook("B1", "Dune", "Herbert", 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.AvailableCopies != 3 || b.TotalCopies != 3 {
		t.Fatalf("want 3/3 copies, got %d/%d", b.AvailableCopies, b.TotalCopies)
	}

	if _, err := c.AddBook("B1", "Other", "X", 1); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate id: want ErrConflict, got %v", err)
	}
	got, err := c.GetBook("B1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title, "duplicate add must not change the stored book")
}

func TestAddBookRejectsInvalidInput(t *testing.T) {
	c, _ := newCatalog(t)
	_, err := c.AddBook("", "T", "A", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.AddBook("B1", "T", "A", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, c.ListBooks())
}

func TestUpdateBook(t *testing.T) {
	c, st := newCatalog(t)
	_, err := c.AddBook("B1", "Dune", "Herbert", 3)
	require.NoError(t, err)
	// Two copies out.
	b, _ := st.book("B1")
	b.AvailableCopies = 1

	t.Run("blank fields keep values", func(t *testing.T) {
		got, err := c.UpdateBook("B1", BookUpdate{})
		require.NoError(t, err)
		assert.Equal(t, Book{ID: "B1", Title: "Dune", Author: "Herbert", TotalCopies: 3, AvailableCopies: 1}, got)
	})

	t.Run("total below lent out is rejected without changes", func(t *testing.T) {
		_, err := c.UpdateBook("B1", BookUpdate{Title: "Dune Messiah", TotalCopies: 1})
		require.ErrorIs(t, err, ErrInvalidState)
		got, _ := c.GetBook("B1")
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, 3, got.TotalCopies)
		assert.Equal(t, 1, got.AvailableCopies)
	})

	t.Run("total equal to lent out leaves none available", func(t *testing.T) {
		got, err := c.UpdateBook("B1", BookUpdate{TotalCopies: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalCopies)
		assert.Equal(t, 0, got.AvailableCopies)
	})

	t.Run("raising total adds available copies", func(t *testing.T) {
		got, err := c.UpdateBook("B1", BookUpdate{Title: "Dune (2nd ed.)", Author: "F. Herbert", TotalCopies: 5})
		require.NoError(t, err)
		assert.Equal(t, Book{ID: "B1", Title: "Dune (2nd ed.)", Author: "F. Herbert", TotalCopies: 5, AvailableCopies: 3}, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := c.UpdateBook("nope", BookUpdate{Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRemoveBook(t *testing.T) {
	c, st := newCatalog(t)
	_, _ = c.AddBook("B1", "Dune", "Herbert", 2)
	_, _ = c.AddBook("B2", "Emma", "Austen", 1)

	b, _ := st.book("B1")
	b.AvailableCopies = 1
	if err := c.RemoveBook("B1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("lent-out book: want ErrInvalidState, got %v", err)
	}
	if err := c.RemoveBook("B2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.RemoveBook("B2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
	assert.Len(t, c.ListBooks(), 1)
}

func TestSearchBooks(t *testing.T) {
	c, _ := newCatalog(t)
	_, _ = c.AddBook("B1", "The Hobbit", "Tolkien", 1)
	_, _ = c.AddBook("B2", "Emma", "Jane Austen", 1)
	_, _ = c.AddBook("X-HOB", "Dune", "Herbert", 1)

	ids := func(books []Book) []string {
		out := []string{}
		for _, b := range books {
			out = append(out, b.ID)
		}
		return out
	}
	assert.Equal(t, []string{"B1", "X-HOB"}, ids(c.SearchBooks("hob")))
	assert.Equal(t, []string{"B2"}, ids(c.SearchBooks("AUSTEN")))
	assert.Empty(t, c.SearchBooks("nothing"))
	assert.Len(t, c.SearchBooks(""), 3, "empty keyword matches everything")
}

func TestMembers(t *testing.T) {
	c, st := newCatalog(t)
	_, err := c.AddMember("M1", "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)
	_, err = c.AddMember("M2", "Alan Turing", "")
	require.NoError(t, err)

	_, err = c.AddMember("M1", "Someone", "")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = c.AddMember("", "Nobody", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	found := c.SearchMembers("ada")
	require.Len(t, found, 1)
	assert.Equal(t, "M1", found[0].ID)
	assert.Empty(t, c.SearchMembers("example.com"), "email is not searched")

	st.loans = append(st.loans, &Loan{ID: "L1", BookID: "B1", MemberID: "M1"})
	assert.ErrorIs(t, c.RemoveMember("M1"), ErrInvalidState)

	returned := Day(testStart)
	st.loans[0].ReturnDate = &returned
	require.NoError(t, c.RemoveMember("M1"))
	assert.ErrorIs(t, c.RemoveMember("M1"), ErrNotFound)

	_, err = c.GetMember("M1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, st.loans, 1, "history survives member removal")
	assert.Equal(t, []Member{{ID: "M2", Name: "Alan Turing"}}, c.ListMembers())
}
