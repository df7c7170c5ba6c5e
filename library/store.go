package library

import "slices"

// Store owns the book, member and loan collections for the life of the
// process. Catalog, Lending and Reports all operate on the same Store by
// reference; nothing else holds the records.
type Store struct {
	books   []*Book
	members []*Member
	loans   []*Loan
}

// NewStore builds a Store from a snapshot. A nil snapshot yields an empty store.
func NewStore(s *Snapshot) *Store {
	st := &Store{}
	if s == nil {
		return st
	}
	for _, b := range s.Books {
		st.books = append(st.books, &b)
	}
	for _, m := range s.Members {
		st.members = append(st.members, &m)
	}
	for _, l := range s.Loans {
		l := l.clone()
		st.loans = append(st.loans, &l)
	}
	return st
}

// Snapshot returns a deep copy of the current records in insertion order.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Books:   make([]Book, 0, len(s.books)),
		Members: make([]Member, 0, len(s.members)),
		Loans:   make([]Loan, 0, len(s.loans)),
	}
	for _, b := range s.books {
		snap.Books = append(snap.Books, *b)
	}
	for _, m := range s.members {
		snap.Members = append(snap.Members, *m)
	}
	for _, l := range s.loans {
		snap.Loans = append(snap.Loans, l.clone())
	}
	return snap
}

func (s *Store) book(id string) (*Book, bool) {
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

func (s *Store) member(id string) (*Member, bool) {
	for _, m := range s.members {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

func (s *Store) hasLoan(id string) bool {
	for _, l := range s.loans {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) deleteBook(id string) {
	s.books = slices.DeleteFunc(s.books, func(b *Book) bool { return b.ID == id })
}

func (s *Store) deleteMember(id string) {
	s.members = slices.DeleteFunc(s.members, func(m *Member) bool { return m.ID == id })
}

// outstandingLoans counts loans with no return date that match pred.
func (s *Store) outstandingLoans(pred func(*Loan) bool) int {
	n := 0
	for _, l := range s.loans {
		if l.Outstanding() && pred(l) {
			n++
		}
	}
	return n
}

// loansWhere returns copies of the loans matching pred, in creation order.
func (s *Store) loansWhere(pred func(*Loan) bool) []Loan {
	out := []Loan{}
	for _, l := range s.loans {
		if pred(l) {
			out = append(out, l.clone())
		}
	}
	return out
}
