package library

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultLoanDays is the loan period applied when none is configured.
const DefaultLoanDays = 14

// Clock returns the current time. Lending only looks at its calendar date.
type Clock func() time.Time

// LendingOption configures a Lending.
type LendingOption func(*Lending)

// WithClock replaces time.Now.
func WithClock(c Clock) LendingOption {
	return func(l *Lending) { l.now = c }
}

// WithIDGenerator sets the loan id source.
func WithIDGenerator(g IDGenerator) LendingOption {
	return func(l *Lending) { l.ids = g }
}

// WithLoanDays sets the loan period. Non-positive values are ignored.
func WithLoanDays(days int) LendingOption {
	return func(l *Lending) {
		if days > 0 {
			l.loanDays = days
		}
	}
}

// Lending moves loans between the outstanding and returned states and keeps
// each book's available copy count in step.
type Lending struct {
	store    *Store
	ids      IDGenerator
	now      Clock
	loanDays int
	log      *slog.Logger
}

// NewLending returns a Lending operating on store. Without options it uses
// time.Now, a 14-day loan period and ids L1, L2, ...
func NewLending(store *Store, logger *slog.Logger, opts ...LendingOption) *Lending {
	l := &Lending{
		store:    store,
		ids:      NewSequenceGenerator("L", 0),
		now:      time.Now,
		loanDays: DefaultLoanDays,
		log:      orDiscard(logger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current calendar date according to the configured clock.
func (l *Lending) Today() time.Time { return Day(l.now()) }

// Borrow lends one copy of the book to the member. The returned loan carries
// the due date.
func (l *Lending) Borrow(memberID, bookID string) (Loan, error) {
	if _, ok := l.store.member(memberID); !ok {
		return Loan{}, fmt.Errorf("member %q: %w", memberID, ErrNotFound)
	}
	b, ok := l.store.book(bookID)
	if !ok {
		return Loan{}, fmt.Errorf("book %q: %w", bookID, ErrNotFound)
	}
	if b.AvailableCopies <= 0 {
		return Loan{}, fmt.Errorf("book %q: no copies available: %w", bookID, ErrInvalidState)
	}

	id, err := l.nextLoanID()
	if err != nil {
		return Loan{}, err
	}
	today := l.Today()
	loan := &Loan{
		ID:         id,
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, l.loanDays),
	}
	l.store.loans = append(l.store.loans, loan)
	b.AvailableCopies--

	l.log.Debug("book borrowed", "loan_id", id, "book_id", bookID, "member_id", memberID,
		"due", FormatDate(loan.DueDate))
	return loan.clone(), nil
}

// Return is the outcome of giving a copy back.
type Return struct {
	Loan     Loan
	DaysLate int
}

// GiveBack closes the first outstanding loan, in creation order, whose loan id
// or book id equals identifier.
func (l *Lending) GiveBack(identifier string) (Return, error) {
	var loan *Loan
	for _, candidate := range l.store.loans {
		if candidate.Outstanding() && (candidate.ID == identifier || candidate.BookID == identifier) {
			loan = candidate
			break
		}
	}
	if loan == nil {
		return Return{}, fmt.Errorf("no active loan for %q: %w", identifier, ErrNotFound)
	}

	today := l.Today()
	loan.ReturnDate = &today
	if b, ok := l.store.book(loan.BookID); ok {
		b.AvailableCopies++
	}

	r := Return{Loan: loan.clone(), DaysLate: loan.DaysLate()}
	l.log.Debug("book returned", "loan_id", loan.ID, "book_id", loan.BookID, "days_late", r.DaysLate)
	return r, nil
}

// ListActive returns the outstanding loans in creation order.
func (l *Lending) ListActive() []Loan {
	return l.store.loansWhere(func(loan *Loan) bool { return loan.Outstanding() })
}

// ListAll returns every loan in creation order.
func (l *Lending) ListAll() []Loan {
	return l.store.loansWhere(func(*Loan) bool { return true })
}

func (l *Lending) nextLoanID() (string, error) {
	// A sequence restarted after a reload collides at most once per existing loan.
	for attempt := 0; attempt <= len(l.store.loans); attempt++ {
		id := l.ids.NextID()
		if id != "" && !l.store.hasLoan(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate an unused loan id: %w", ErrConflict)
}
