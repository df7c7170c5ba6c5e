package library

import (
	"fmt"
	"strconv"
)

// Backend persists the full record set. Load treats an empty or missing
// store as empty collections. Save overwrites everything previously stored.
type Backend interface {
	Load() (*Snapshot, *LoadReport, error)
	Save(*Snapshot) error
	Close() error
}

// Migrate copies every record readable from src into dst.
func Migrate(src, dst Backend) (*LoadReport, error) {
	snap, report, err := src.Load()
	if err != nil {
		return report, fmt.Errorf("load source: %w", err)
	}
	if err := dst.Save(snap); err != nil {
		return report, fmt.Errorf("save destination: %w", err)
	}
	return report, nil
}

// recordParser turns persisted rows into records, rejecting malformed rows
// and duplicate ids. Both backends share it.
type recordParser struct {
	snap      Snapshot
	bookIDs   map[string]bool
	memberIDs map[string]bool
	loanIDs   map[string]bool
}

func newRecordParser() *recordParser {
	return &recordParser{
		bookIDs:   map[string]bool{},
		memberIDs: map[string]bool{},
		loanIDs:   map[string]bool{},
	}
}

// book parses id,title,author,totalCopies,availableCopies.
func (p *recordParser) book(f []string) error {
	if len(f) < 5 {
		return fmt.Errorf("%w: book has %d fields, want 5", ErrMalformedRecord, len(f))
	}
	if f[0] == "" {
		return fmt.Errorf("%w: empty book id", ErrMalformedRecord)
	}
	if p.bookIDs[f[0]] {
		return fmt.Errorf("%w: duplicate book id %q", ErrMalformedRecord, f[0])
	}
	total, err := strconv.Atoi(f[3])
	if err != nil {
		return fmt.Errorf("%w: total copies %q", ErrMalformedRecord, f[3])
	}
	avail, err := strconv.Atoi(f[4])
	if err != nil {
		return fmt.Errorf("%w: available copies %q", ErrMalformedRecord, f[4])
	}
	if total < 0 || avail < 0 || avail > total {
		return fmt.Errorf("%w: copies %d/%d out of range", ErrMalformedRecord, avail, total)
	}
	p.bookIDs[f[0]] = true
	p.snap.Books = append(p.snap.Books, Book{
		ID: f[0], Title: f[1], Author: f[2], TotalCopies: total, AvailableCopies: avail,
	})
	return nil
}

// member parses id,name,email.
func (p *recordParser) member(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("%w: member has %d fields, want 3", ErrMalformedRecord, len(f))
	}
	if f[0] == "" {
		return fmt.Errorf("%w: empty member id", ErrMalformedRecord)
	}
	if p.memberIDs[f[0]] {
		return fmt.Errorf("%w: duplicate member id %q", ErrMalformedRecord, f[0])
	}
	p.memberIDs[f[0]] = true
	p.snap.Members = append(p.snap.Members, Member{ID: f[0], Name: f[1], Email: f[2]})
	return nil
}

// loan parses loanId,bookId,memberId,borrowDate,dueDate,returnDate.
func (p *recordParser) loan(f []string) error {
	if len(f) < 6 {
		return fmt.Errorf("%w: loan has %d fields, want 6", ErrMalformedRecord, len(f))
	}
	if f[0] == "" {
		return fmt.Errorf("%w: empty loan id", ErrMalformedRecord)
	}
	if p.loanIDs[f[0]] {
		return fmt.Errorf("%w: duplicate loan id %q", ErrMalformedRecord, f[0])
	}
	borrowed, err := ParseDate(f[3])
	if err != nil {
		return fmt.Errorf("%w: borrow date %q", ErrMalformedRecord, f[3])
	}
	due, err := ParseDate(f[4])
	if err != nil {
		return fmt.Errorf("%w: due date %q", ErrMalformedRecord, f[4])
	}
	loan := Loan{ID: f[0], BookID: f[1], MemberID: f[2], BorrowDate: borrowed, DueDate: due}
	if f[5] != "" {
		returned, err := ParseDate(f[5])
		if err != nil {
			return fmt.Errorf("%w: return date %q", ErrMalformedRecord, f[5])
		}
		loan.ReturnDate = &returned
	}
	p.loanIDs[f[0]] = true
	p.snap.Loans = append(p.snap.Loans, loan)
	return nil
}

func bookFields(b Book) []string {
	return []string{b.ID, b.Title, b.Author, strconv.Itoa(b.TotalCopies), strconv.Itoa(b.AvailableCopies)}
}

func memberFields(m Member) []string {
	return []string{m.ID, m.Name, m.Email}
}

func loanFields(l Loan) []string {
	returned := ""
	if l.ReturnDate != nil {
		returned = FormatDate(*l.ReturnDate)
	}
	return []string{l.ID, l.BookID, l.MemberID, FormatDate(l.BorrowDate), FormatDate(l.DueDate), returned}
}
