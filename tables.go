package main

import (
	"fmt"
	"io"
	"strings"

	"library-console/library"
)

// Column widths for the fixed columns; the title column takes what is left.
const (
	idWidth     = 10
	authorWidth = 22
	countWidth  = 9
	dateWidth   = 10
)

func titleWidth(total int) int {
	w := total - idWidth - authorWidth - 2*countWidth - 5
	if w < 15 {
		return 15
	}
	return w
}

func printBooks(out io.Writer, books []library.Book, width int) {
	tw := titleWidth(width)
	fmt.Fprintf(out, "%-*s %-*s %-*s %*s %*s\n",
		idWidth, "ID", tw, "Title", authorWidth, "Author", countWidth, "Total", countWidth, "Available")
	fmt.Fprintln(out, strings.Repeat("-", idWidth+tw+authorWidth+2*countWidth+4))
	for _, b := range books {
		fmt.Fprintf(out, "%-*s %-*s %-*s %*d %*d\n",
			idWidth, truncateString(b.ID, idWidth),
			tw, truncateString(b.Title, tw),
			authorWidth, truncateString(b.Author, authorWidth),
			countWidth, b.TotalCopies,
			countWidth, b.AvailableCopies)
	}
}

func printMembers(out io.Writer, members []library.Member) {
	fmt.Fprintf(out, "%-*s %-30s %-30s\n", idWidth, "ID", "Name", "Email")
	fmt.Fprintln(out, strings.Repeat("-", idWidth+62))
	for _, m := range members {
		fmt.Fprintf(out, "%-*s %-30s %-30s\n",
			idWidth, truncateString(m.ID, idWidth), truncateString(m.Name, 30), truncateString(m.Email, 30))
	}
}

func printLoans(out io.Writer, loans []library.Loan) {
	lw := len("Loan")
	for _, l := range loans {
		lw = max(lw, len(l.ID))
	}
	fmt.Fprintf(out, "%-*s %-*s %-*s %-*s %-*s %-*s\n",
		lw, "Loan", idWidth, "Book", idWidth, "Member", dateWidth, "Borrowed", dateWidth, "Due", dateWidth, "Returned")
	fmt.Fprintln(out, strings.Repeat("-", lw+2*idWidth+3*dateWidth+5))
	for _, l := range loans {
		returned := "-"
		if l.ReturnDate != nil {
			returned = library.FormatDate(*l.ReturnDate)
		}
		fmt.Fprintf(out, "%-*s %-*s %-*s %-*s %-*s %-*s\n",
			lw, l.ID,
			idWidth, truncateString(l.BookID, idWidth),
			idWidth, truncateString(l.MemberID, idWidth),
			dateWidth, library.FormatDate(l.BorrowDate),
			dateWidth, library.FormatDate(l.DueDate),
			dateWidth, returned)
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
