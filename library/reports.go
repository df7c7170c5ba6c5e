package library

import (
	"fmt"
	"time"
)

// Reports computes read-only views over the store.
type Reports struct {
	store *Store
}

// NewReports returns a Reports reading from store.
func NewReports(store *Store) *Reports { return &Reports{store: store} }

// LowAvailability returns the books with at most threshold copies available.
func (r *Reports) LowAvailability(threshold int) []Book {
	out := []Book{}
	for _, b := range r.store.books {
		if b.AvailableCopies <= threshold {
			out = append(out, *b)
		}
	}
	return out
}

// Overdue returns the outstanding loans whose due date is before today.
func (r *Reports) Overdue(today time.Time) []Loan {
	day := Day(today)
	return r.store.loansWhere(func(l *Loan) bool {
		return l.Outstanding() && l.DueDate.Before(day)
	})
}

// History returns every loan of the member, returned or not, in creation order.
func (r *Reports) History(memberID string) ([]Loan, error) {
	if _, ok := r.store.member(memberID); !ok {
		return nil, fmt.Errorf("member %q: %w", memberID, ErrNotFound)
	}
	return r.store.loansWhere(func(l *Loan) bool { return l.MemberID == memberID }), nil
}
