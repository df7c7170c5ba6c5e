package library

import (
	"fmt"
	"time"
)

// dateLayout is the ISO-8601 calendar date format used on disk and on screen.
const dateLayout = "2006-01-02"

// Book is a catalog title together with its pool of identical copies.
// AvailableCopies never exceeds TotalCopies; the difference is the number of
// copies currently on loan.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// LentOut returns how many copies are currently on loan.
func (b Book) LentOut() int { return b.TotalCopies - b.AvailableCopies }

// Member represents a registered library member.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Loan records one copy of a book lent to a member. BookID and MemberID are
// plain keys, resolved by lookup when needed, so a loan survives the removal
// of either record in the history. ReturnDate is nil while the loan is
// outstanding.
type Loan struct {
	ID         string     `json:"loan_id"`
	BookID     string     `json:"book_id"`
	MemberID   string     `json:"member_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// Outstanding reports whether the copy has not been returned yet.
func (l Loan) Outstanding() bool { return l.ReturnDate == nil }

// DaysLate is the number of days between the due date and the return date,
// or zero when the loan was returned on time or is still outstanding.
func (l Loan) DaysLate() int {
	if l.ReturnDate == nil {
		return 0
	}
	if d := daysBetween(l.DueDate, *l.ReturnDate); d > 0 {
		return d
	}
	return 0
}

// DaysOverdue is DaysLate for a returned loan. For an outstanding loan it
// counts the days past due as of today.
func (l Loan) DaysOverdue(today time.Time) int {
	if l.ReturnDate != nil {
		return l.DaysLate()
	}
	if d := daysBetween(l.DueDate, today); d > 0 {
		return d
	}
	return 0
}

func (l Loan) clone() Loan {
	if l.ReturnDate != nil {
		rd := *l.ReturnDate
		l.ReturnDate = &rd
	}
	return l
}

// Snapshot is the complete record set exchanged with a Backend. Each slice
// is in insertion order.
type Snapshot struct {
	Books   []Book
	Members []Member
	Loans   []Loan
}

// LoadReport summarizes what a Backend read. Skipped lists records that could
// not be parsed; they are dropped rather than failing the load.
type LoadReport struct {
	Books   int
	Members int
	Loans   int
	Skipped []SkippedRecord
}

// SkippedRecord identifies a malformed persisted record.
type SkippedRecord struct {
	Source string
	Line   int
	Err    error
}

func (s SkippedRecord) String() string {
	return fmt.Sprintf("%s:%d: %v", s.Source, s.Line, s.Err)
}

// Day truncates t to its calendar date, returned as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
